package ports

import (
	"context"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the scheduling context.
type WorkflowOrchestrator interface {
	BookAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error)
}
