package ports

import (
	"context"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

// EventPublisher ships domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
