package ports

import (
	"context"
	"errors"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

// ErrSlotLocked indicates another booking currently holds the slot.
var ErrSlotLocked = errors.New("slot is locked by another booking")

// ReleaseFunc gives a held slot back.
type ReleaseFunc func(ctx context.Context) error

// SlotLocker serializes read-verify-write cycles on the same slot across processes.
type SlotLocker interface {
	Acquire(ctx context.Context, slot domain.TimeSlot) (ReleaseFunc, error)
}
