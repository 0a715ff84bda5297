package scheduling

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// BookAppointmentActivityName books an appointment through the scheduling service.
const BookAppointmentActivityName = "scheduling.activities.BookAppointment"

// Activities groups activities that operate on the scheduling bounded context.
type Activities struct {
	service schedports.Service
}

// NewActivities wires the scheduling service into the Temporal activities bundle.
func NewActivities(service schedports.Service) *Activities {
	return &Activities{service: service}
}

// BookAppointment runs the create use case. Retries are safe when the input carries
// an idempotency key, which the orchestrator always sets.
func (a *Activities) BookAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	logger := activity.GetLogger(ctx)
	userID := input.Session.UserID
	if a == nil || a.service == nil {
		logger.Error("booking activity not initialized", "userId", userID)
		return nil, errors.New("booking activity not initialized")
	}
	logger.Info("BookAppointment activity started", "userId", userID, "from", input.Request.From)
	projection, err := a.service.CreateAppointment(ctx, input)
	if err != nil {
		logger.Warn("BookAppointment activity failed", "userId", userID, "error", err)
		return nil, EncodeError(err)
	}
	if projection != nil && projection.Entity != nil {
		logger.Info("BookAppointment activity completed", "appointmentId", projection.Entity.ID)
	}
	return projection, nil
}
