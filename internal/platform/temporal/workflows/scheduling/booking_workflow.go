package scheduling

import (
	"go.temporal.io/sdk/workflow"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/platform/temporal/sequences"
)

const (
	// BookingWorkflowName is the public identifier for registering the workflow.
	BookingWorkflowName = "scheduling.workflows.Booking"
	// BookingTaskQueue is the queue consumed by the worker processing booking workflows.
	BookingTaskQueue = "APPOINTMENT_BOOKING"
)

// BookingWorkflowInput captures the payload required to book an appointment.
type BookingWorkflowInput struct {
	Command schedtypes.CreateAppointmentInput
	TraceID string
}

// BookingWorkflow orchestrates the activities needed to book an appointment.
func BookingWorkflow(ctx workflow.Context, input BookingWorkflowInput) (*schedtypes.AppointmentProjection, error) {
	logger := workflow.GetLogger(ctx)
	userID := input.Command.Session.UserID
	logger.Info("BookingWorkflow started", withTraceID(input.TraceID, "userId", userID)...)
	projection, err := sequences.RunBookingSequence(ctx, input.Command)
	if err != nil {
		logger.Error("BookingWorkflow failed", withTraceID(input.TraceID, "userId", userID, "error", err)...)
		return nil, err
	}
	if projection != nil && projection.Entity != nil {
		logger.Info("BookingWorkflow completed", withTraceID(input.TraceID, "appointmentId", projection.Entity.ID)...)
	}
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
