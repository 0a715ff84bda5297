package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	schedactivities "github.com/Apurer/petclinic-scheduling/internal/platform/temporal/activities/scheduling"
)

// RunBookingSequence executes the activities needed to book an appointment.
func RunBookingSequence(ctx workflow.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Session.UserID
	logger.Info("booking sequence started", "userId", userID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: schedactivities.NonRetryableErrorTypes(),
		},
	}

	var projection schedtypes.AppointmentProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), schedactivities.BookAppointmentActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Error("booking sequence failed", "userId", userID, "error", err)
		return nil, err
	}
	if projection.Entity != nil {
		logger.Info("booking sequence completed", "appointmentId", projection.Entity.ID)
	}
	return &projection, nil
}
