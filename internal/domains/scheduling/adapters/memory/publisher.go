package memory

import (
	"context"
	"sync"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// retainedEvents bounds the recorder when it stands in for a broker in a
// long-running process.
const retainedEvents = 1024

// Publisher records the most recent events for inspection in tests and local runs.
type Publisher struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewPublisher constructs an empty recorder.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish appends the events.
func (p *Publisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	if over := len(p.events) - retainedEvents; over > 0 {
		p.events = append([]domain.Event(nil), p.events[over:]...)
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (p *Publisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}
