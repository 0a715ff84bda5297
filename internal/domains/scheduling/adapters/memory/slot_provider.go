package memory

import (
	"context"
	"sync"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.SlotProvider = (*SlotProvider)(nil)

// SlotProvider serves a fixed, mutable slot list.
type SlotProvider struct {
	mu    sync.RWMutex
	slots []domain.TimeSlot
	err   error
}

// NewSlotProvider seeds the provider with slots.
func NewSlotProvider(slots ...domain.TimeSlot) *SlotProvider {
	return &SlotProvider{slots: append([]domain.TimeSlot(nil), slots...)}
}

// ListSlots returns a copy of the configured slots.
func (p *SlotProvider) ListSlots(context.Context) ([]domain.TimeSlot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return nil, p.err
	}
	return append([]domain.TimeSlot(nil), p.slots...), nil
}

// Replace swaps the full slot list.
func (p *SlotProvider) Replace(slots ...domain.TimeSlot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = append([]domain.TimeSlot(nil), slots...)
}

// SetAvailability flips the availability flag of the slot with the given bounds.
func (p *SlotProvider) SetAvailability(slot domain.TimeSlot, available bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		if p.slots[i].SameInterval(slot) {
			p.slots[i].Available = available
			return true
		}
	}
	return false
}

// FailWith makes subsequent ListSlots calls return err. Pass nil to recover.
func (p *SlotProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
