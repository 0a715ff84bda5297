package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

const tracerName = "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/observability/service"

// Service decorates the scheduling port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) AvailableDates(ctx context.Context, input schedtypes.AvailableDatesInput) ([]domain.LocalDate, error) {
	ctx, span := s.startSpan(ctx, "Service.AvailableDates")
	defer span.End()

	result, err := s.inner.AvailableDates(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list available dates")
	}
	span.SetAttributes(attribute.Int("scheduling.dates.count", len(result)))
	return result, nil
}

func (s *Service) SlotsForDate(ctx context.Context, input schedtypes.SlotsForDateInput) ([]domain.TimeSlot, error) {
	date := input.Date.String()
	ctx, span := s.startSpan(ctx, "Service.SlotsForDate", attribute.String("scheduling.date", date))
	defer span.End()

	result, err := s.inner.SlotsForDate(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list slots for date", slog.String("date", date))
	}
	span.SetAttributes(attribute.Int("scheduling.slots.count", len(result)))
	return result, nil
}

// CreateAppointment books a slot with instrumentation.
func (s *Service) CreateAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	slot := input.Request.Slot().String()
	ctx, span := s.startSpan(ctx, "Service.CreateAppointment",
		attribute.String("user.id", input.Session.UserID),
		attribute.String("scheduling.slot", slot),
		attribute.Bool("scheduling.idempotent", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "booking appointment", slog.String("user.id", input.Session.UserID), slog.String("slot", slot))
	result, err := s.inner.CreateAppointment(ctx, input)
	if err != nil {
		s.metrics.recordRejection(ctx, "create", err)
		return nil, s.handleError(ctx, span, err, "failed to book appointment", slog.String("slot", slot))
	}
	if result != nil && result.Entity != nil {
		s.metrics.recordCreated(ctx, result.Entity.Services)
		span.SetAttributes(attribute.String("appointment.id", result.Entity.ID))
		s.logInfo(ctx, "appointment booked", slog.String("appointment.id", result.Entity.ID), slog.String("status", string(result.Entity.Status)))
	}
	return result, nil
}

// EditAppointment changes an appointment with instrumentation.
func (s *Service) EditAppointment(ctx context.Context, input schedtypes.EditAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.EditAppointment", attribute.String("appointment.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "editing appointment", slog.String("appointment.id", input.ID))
	result, err := s.inner.EditAppointment(ctx, input)
	if err != nil {
		s.metrics.recordRejection(ctx, "edit", err)
		return nil, s.handleError(ctx, span, err, "failed to edit appointment", slog.String("appointment.id", input.ID))
	}
	s.metrics.recordEdited(ctx)
	s.logInfo(ctx, "appointment edited", slog.String("appointment.id", input.ID))
	return result, nil
}

// CancelAppointment cancels an appointment with instrumentation.
func (s *Service) CancelAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.CancelAppointment", attribute.String("appointment.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "cancelling appointment", slog.String("appointment.id", input.ID))
	result, err := s.inner.CancelAppointment(ctx, input)
	if err != nil {
		s.metrics.recordRejection(ctx, "cancel", err)
		return nil, s.handleError(ctx, span, err, "failed to cancel appointment", slog.String("appointment.id", input.ID))
	}
	s.metrics.recordStatus(ctx, domain.StatusCancelled)
	s.logInfo(ctx, "appointment cancelled", slog.String("appointment.id", input.ID))
	return result, nil
}

// UpdateStatus moves an appointment along its lifecycle with instrumentation.
func (s *Service) UpdateStatus(ctx context.Context, input schedtypes.UpdateStatusInput) (*schedtypes.AppointmentProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateStatus",
		attribute.String("appointment.id", input.ID),
		attribute.String("appointment.status", input.Status),
	)
	defer span.End()

	result, err := s.inner.UpdateStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update appointment status",
			slog.String("appointment.id", input.ID), slog.String("status", input.Status))
	}
	if result != nil && result.Entity != nil {
		s.metrics.recordStatus(ctx, result.Entity.Status)
		s.logInfo(ctx, "appointment status updated", slog.String("appointment.id", input.ID), slog.String("status", string(result.Entity.Status)))
	}
	return result, nil
}

func (s *Service) GetAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetAppointment", attribute.String("appointment.id", input.ID))
	defer span.End()

	result, err := s.inner.GetAppointment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get appointment", slog.String("appointment.id", input.ID))
	}
	return result, nil
}

func (s *Service) ListAppointments(ctx context.Context, input schedtypes.ListAppointmentsInput) ([]*schedtypes.AppointmentProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListAppointments", attribute.String("user.id", input.Session.UserID))
	defer span.End()

	result, err := s.inner.ListAppointments(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list appointments", slog.String("user.id", input.Session.UserID))
	}
	span.SetAttributes(attribute.Int("scheduling.appointments.count", len(result)))
	return result, nil
}

// ListAllAppointments traces the staff listing with its filter.
func (s *Service) ListAllAppointments(ctx context.Context, input schedtypes.ListAllAppointmentsInput) ([]*schedtypes.AppointmentProjection, error) {
	attrs := []attribute.KeyValue{attribute.String("appointment.status", input.Status)}
	if !input.Date.IsZero() {
		attrs = append(attrs, attribute.String("scheduling.date", input.Date.String()))
	}
	ctx, span := s.startSpan(ctx, "Service.ListAllAppointments", attrs...)
	defer span.End()

	result, err := s.inner.ListAllAppointments(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list clinic appointments", slog.String("status", input.Status))
	}
	span.SetAttributes(attribute.Int("scheduling.appointments.count", len(result)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Client-correctable failures are logged at warn so they do not page anyone.
func (s *Service) logFailure(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	level := slog.LevelError
	if isExpected(err) {
		level = slog.LevelWarn
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logFailure(ctx, msg, err, attrs...)
	return err
}

func isExpected(err error) bool {
	return errors.Is(err, application.ErrValidation) ||
		errors.Is(err, application.ErrSlotConflict) ||
		errors.Is(err, application.ErrEditWindowClosed) ||
		errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, ports.ErrIdempotencyConflict)
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created             metric.Int64Counter
	edited              metric.Int64Counter
	statusChanged       metric.Int64Counter
	conflicts           metric.Int64Counter
	editWindowRejection metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("scheduling.appointments.created", metric.WithDescription("Number of appointments booked"))
	edited, _ := m.Int64Counter("scheduling.appointments.edited", metric.WithDescription("Number of appointments edited"))
	statusChanged, _ := m.Int64Counter("scheduling.appointments.status_changed", metric.WithDescription("Number of lifecycle transitions, cancellations included"))
	conflicts, _ := m.Int64Counter("scheduling.appointments.conflicts", metric.WithDescription("Number of bookings lost to a slot conflict"))
	editWindow, _ := m.Int64Counter("scheduling.appointments.edit_window_rejections", metric.WithDescription("Number of edits or cancellations refused by the edit window"))
	return serviceMetrics{
		created:             created,
		edited:              edited,
		statusChanged:       statusChanged,
		conflicts:           conflicts,
		editWindowRejection: editWindow,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, services []domain.ServiceType) {
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, string(svc))
	}
	addCounter(ctx, m.created, 1, attribute.StringSlice("appointment.services", names))
}

func (m serviceMetrics) recordEdited(ctx context.Context) {
	addCounter(ctx, m.edited, 1)
}

func (m serviceMetrics) recordStatus(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.statusChanged, 1, attribute.String("appointment.status", string(status)))
}

func (m serviceMetrics) recordRejection(ctx context.Context, operation string, err error) {
	op := attribute.String("operation", operation)
	switch {
	case errors.Is(err, application.ErrSlotConflict):
		addCounter(ctx, m.conflicts, 1, op)
	case errors.Is(err, application.ErrEditWindowClosed):
		addCounter(ctx, m.editWindowRejection, 1, op)
	}
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
