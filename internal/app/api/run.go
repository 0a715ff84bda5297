package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	clinicserver "github.com/Apurer/petclinic-scheduling/go"
	schedobs "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/observability"
	schedworkflows "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/workflows"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	platformobservability "github.com/Apurer/petclinic-scheduling/internal/platform/observability"
)

const serviceName = "scheduling-api"

// Run boots the scheduling HTTP API with observability, collaborators, and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	collaborators := BuildCollaborators(ctx, cfg, logger)
	defer collaborators.Close()
	service := NewInstrumentedService(cfg, collaborators, instruments)

	booking, closeBooking := NewBookingOrchestrator(cfg, collaborators, service, instruments)
	defer closeBooking()

	handlers := clinicserver.ApiHandleFunctions{
		AppointmentAPI: clinicserver.NewAppointmentAPI(service, booking),
		SlotAPI:        clinicserver.NewSlotAPI(service),
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router := clinicserver.NewRouterWithGinEngine(engine, handlers)

	server := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Scheduling API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Scheduling API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Scheduling API shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// NewBookingOrchestrator books through Temporal when the worker shares the
// appointment store with this process, and inline otherwise.
func NewBookingOrchestrator(cfg Config, c *Collaborators, service schedports.Service, instruments *platformobservability.Instruments) (schedports.WorkflowOrchestrator, func()) {
	logger := effectiveLogger(instruments)
	inline := schedworkflows.NewInlineBookingWorkflows(service)
	if !cfg.TemporalDisabled && !c.Shared() {
		logger.Warn("appointment store is in process memory, booking inline instead of through Temporal",
			slog.String("hint", "set POSTGRES_DSN or CLINIC_API_URL to share bookings with the worker"))
		return inline, func() {}
	}
	temporalClient, err := ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal workflows unavailable, booking inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return schedworkflows.NewTemporalBookingWorkflows(temporalClient), temporalClient.Close
}

// NewInstrumentedService builds the core scheduling service and wraps it with tracing, logs, and metrics.
func NewInstrumentedService(cfg Config, c *Collaborators, instruments *platformobservability.Instruments) schedports.Service {
	logger := effectiveLogger(instruments)
	core := application.NewService(c.Slots, c.Store, c.ServiceOptions(cfg, logger)...)
	return schedobs.New(
		core,
		schedobs.WithLogger(logger),
		schedobs.WithTracer(instruments.Tracer("internal.scheduling.application")),
		schedobs.WithMeter(instruments.Meter("internal.scheduling.application")),
	)
}

// ConnectTemporalClient dials Temporal with tracing and structured logging, unless disabled.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
