package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	schedactivities "github.com/Apurer/petclinic-scheduling/internal/platform/temporal/activities/scheduling"
	bookingworkflows "github.com/Apurer/petclinic-scheduling/internal/platform/temporal/workflows/scheduling"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalBookingWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineBookingWorkflows)(nil)
)

// workflowStarter is the slice of client.Client the orchestrator needs.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// TemporalBookingWorkflows starts booking workflows on a Temporal cluster.
type TemporalBookingWorkflows struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalBookingWorkflows wires a Temporal client into the orchestrator.
func NewTemporalBookingWorkflows(c client.Client) *TemporalBookingWorkflows {
	return &TemporalBookingWorkflows{client: c, taskQueue: bookingworkflows.BookingTaskQueue}
}

// BookAppointment runs the booking workflow and waits for its result. Requests
// without an idempotency key get a generated one so activity retries never double-book.
func (o *TemporalBookingWorkflows) BookAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal booking workflows not configured")
	}
	callerKey := strings.TrimSpace(input.IdempotencyKey)
	if callerKey == "" {
		input.IdempotencyKey = uuid.NewString()
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildBookingWorkflowID(callerKey, input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		bookingworkflows.BookingWorkflow,
		bookingworkflows.BookingWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && callerKey != "" {
			run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
		} else {
			return nil, schedactivities.DecodeError(err)
		}
	}
	var projection schedtypes.AppointmentProjection
	if err := run.Get(ctx, &projection); err != nil {
		return nil, schedactivities.DecodeError(err)
	}
	return &projection, nil
}

// InlineBookingWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineBookingWorkflows struct {
	service ports.Service
}

// NewInlineBookingWorkflows wraps the scheduling service for synchronous execution.
func NewInlineBookingWorkflows(service ports.Service) *InlineBookingWorkflows {
	return &InlineBookingWorkflows{service: service}
}

// BookAppointment delegates to the application service without durable orchestration.
func (o *InlineBookingWorkflows) BookAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline booking workflows not configured")
	}
	return o.service.CreateAppointment(ctx, input)
}

func buildBookingWorkflowID(callerKey string, input schedtypes.CreateAppointmentInput, traceComponent string) string {
	if callerKey != "" {
		return fmt.Sprintf("appointment-booking-idem-%s", hashIdempotencyKey(input.Session.UserID+"/"+callerKey))
	}
	return fmt.Sprintf("appointment-booking-%d-%s", input.Request.From.Unix(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
