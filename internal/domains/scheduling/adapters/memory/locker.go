package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.SlotLocker = (*SlotLocker)(nil)

// SlotLocker serializes bookings of the same slot within one process.
type SlotLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewSlotLocker constructs an empty locker.
func NewSlotLocker() *SlotLocker {
	return &SlotLocker{held: map[string]struct{}{}}
}

// Acquire fails fast with ports.ErrSlotLocked when the slot is already held.
func (l *SlotLocker) Acquire(_ context.Context, slot domain.TimeSlot) (ports.ReleaseFunc, error) {
	key := lockKey(slot)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ports.ErrSlotLocked
	}
	l.held[key] = struct{}{}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

// lockKey identifies the slot by its instants so offsets do not split one interval into two keys.
func lockKey(slot domain.TimeSlot) string {
	return strconv.FormatInt(slot.From.UTC().Unix(), 10) + "-" + strconv.FormatInt(slot.To.UTC().Unix(), 10)
}
