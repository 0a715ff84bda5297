package ports

import (
	"context"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

// SlotProvider is the source of truth for availability. The core never mutates it.
type SlotProvider interface {
	ListSlots(ctx context.Context) ([]domain.TimeSlot, error)
}
