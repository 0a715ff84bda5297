package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/petclinic-scheduling/internal/app/api"
	platformobservability "github.com/Apurer/petclinic-scheduling/internal/platform/observability"
	schedactivities "github.com/Apurer/petclinic-scheduling/internal/platform/temporal/activities/scheduling"
	bookingworkflows "github.com/Apurer/petclinic-scheduling/internal/platform/temporal/workflows/scheduling"
)

const serviceName = "scheduling-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		log.Fatalf("%s: %v", serviceName, err)
	}
}

// run hosts the booking workflow and its activity until ctx is cancelled.
// The worker always talks to Temporal, whatever TEMPORAL_DISABLED says.
func run(ctx context.Context) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	logger := instruments.Logger
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Error("observability shutdown failed", slog.String("error", err.Error()))
		}
	}()

	cfg, err := api.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.TemporalDisabled = false

	collaborators := api.BuildCollaborators(ctx, cfg, logger)
	defer collaborators.Close()
	if !collaborators.Shared() {
		logger.Warn("worker books into its own in-memory store; the API will not see these appointments",
			slog.String("hint", "set POSTGRES_DSN or CLINIC_API_URL"))
	}
	bookingActivities := schedactivities.NewActivities(api.NewInstrumentedService(cfg, collaborators, instruments))

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		return fmt.Errorf("connect temporal: %w", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, bookingworkflows.BookingTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(bookingworkflows.BookingWorkflow, workflow.RegisterOptions{Name: bookingworkflows.BookingWorkflowName})
	w.RegisterActivityWithOptions(bookingActivities.BookAppointment, activity.RegisterOptions{Name: schedactivities.BookAppointmentActivityName})

	interrupt := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()

	logger.Info("booking worker polling",
		slog.String("taskQueue", bookingworkflows.BookingTaskQueue),
		slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(interrupt); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	logger.Info("booking worker stopped")
	return nil
}
