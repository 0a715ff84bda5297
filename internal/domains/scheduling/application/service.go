package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// Service orchestrates the scheduling use cases against the slot and appointment collaborators.
type Service struct {
	slots       ports.SlotProvider
	store       ports.AppointmentStore
	idempotency ports.IdempotencyStore
	locker      ports.SlotLocker
	events      ports.EventPublisher
	logger      *slog.Logger

	now               func() time.Time
	window            domain.EditWindow
	bookingWindowDays int
	loc               *time.Location
}

// Option customizes the service.
type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEditWindow sets the lead time below which edits and cancellations are refused.
func WithEditWindow(threshold time.Duration) Option {
	return func(s *Service) {
		s.window = domain.NewEditWindow(threshold)
	}
}

// WithBookingWindowDays sets how many days ahead AvailableDates looks by default.
func WithBookingWindowDays(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.bookingWindowDays = days
		}
	}
}

// WithLocation sets the clinic time zone used to bucket slots into days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIdempotencyStore enables replay-safe bookings keyed by client idempotency keys.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithSlotLocker narrows the read-verify-write window across processes.
func WithSlotLocker(locker ports.SlotLocker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithEventPublisher ships domain events after successful mutations.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithLogger injects a slog logger for non-fatal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the scheduling service with its collaborators.
func NewService(slots ports.SlotProvider, store ports.AppointmentStore, opts ...Option) *Service {
	s := &Service{
		slots:             slots,
		store:             store,
		locker:            noopLocker{},
		events:            noopPublisher{},
		logger:            slog.New(slog.DiscardHandler),
		now:               time.Now,
		window:            domain.NewEditWindow(domain.DefaultEditWindow),
		bookingWindowDays: domain.DefaultBookingWindowDays,
		loc:               time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AvailableDates lists the days within the booking horizon that still have a free slot.
func (s *Service) AvailableDates(ctx context.Context, input schedtypes.AvailableDatesInput) ([]domain.LocalDate, error) {
	window := s.bookingWindowDays
	if input.WindowDays != nil {
		window = *input.WindowDays
	}
	slots, err := s.slots.ListSlots(ctx)
	if err != nil {
		return nil, storeError("list slots", err)
	}
	return domain.AvailableDates(slots, window, s.now(), s.loc), nil
}

// SlotsForDate lists the free slots on a day, earliest first.
func (s *Service) SlotsForDate(ctx context.Context, input schedtypes.SlotsForDateInput) ([]domain.TimeSlot, error) {
	if input.Date.IsZero() {
		return nil, mapError(domain.ErrInvalidDate)
	}
	slots, err := s.slots.ListSlots(ctx)
	if err != nil {
		return nil, storeError("list slots", err)
	}
	return domain.SortSlots(domain.SlotsForDate(slots, input.Date, s.loc)), nil
}

// CreateAppointment validates and books a slot, re-checking availability right before committing.
func (s *Service) CreateAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	if strings.TrimSpace(input.Session.UserID) == "" {
		return nil, mapError(domain.ErrMissingUser)
	}
	req := input.Request
	slot := req.Slot()
	date := input.Date
	if date.IsZero() && !req.From.IsZero() {
		date = domain.DateOf(req.From, s.loc)
	}
	selection := domain.Selection{Date: date, Location: s.loc}
	if !slot.IsZero() {
		selection.Slot = &slot
	}
	if err := domain.ValidateForCreate(req, selection, s.now()); err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	var requestHash string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintCreate(input)
		if err != nil {
			return nil, err
		}
		requestHash = hash
		replayed, err := s.replay(ctx, key, requestHash)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}

	release, err := s.acquire(ctx, slot)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.verifySlot(ctx, input.Session.UserID, slot, ""); err != nil {
		return nil, err
	}
	saved, err := s.store.Create(ctx, domain.NewAppointment(input.Session, req))
	if err != nil {
		return nil, storeError("create", err)
	}

	if requestHash != "" {
		_, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:           key,
			RequestHash:   requestHash,
			AppointmentID: saved.Entity.ID,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to save idempotency key",
				slog.String("appointment.id", saved.Entity.ID), slog.Any("error", err))
		}
	}

	appt := saved.Entity
	s.publish(ctx, domain.AppointmentBooked{
		BaseEvent: domain.BaseEvent{Timestamp: s.now(), AppointmentID: appt.ID},
		UserID:    appt.UserID,
		PetID:     appt.PetID,
		Services:  appt.Services,
		From:      appt.From,
		To:        appt.To,
	})
	return saved, nil
}

// EditAppointment changes pet, services, or slot while the edit window is open.
func (s *Service) EditAppointment(ctx context.Context, input schedtypes.EditAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	current, err := s.load(ctx, input.Session, input.ID)
	if err != nil {
		return nil, err
	}
	appt := current.Entity
	if !appt.IsActive() {
		return nil, mapError(fmt.Errorf("%w: status %s", domain.ErrAppointmentInactive, appt.Status))
	}
	if err := s.checkWindow(appt); err != nil {
		return nil, err
	}
	changes, err := domain.ValidateForEdit(*appt, input.Request)
	if err != nil {
		return nil, mapError(err)
	}

	proposed := appt.Clone()
	proposed.Reschedule(input.Request, changes)
	update := ports.AppointmentUpdate{}
	if changes.PetChanged {
		update.PetID = &proposed.PetID
	}
	if changes.ServiceChanged {
		update.Services = &proposed.Services
	}
	if changes.SlotChanged {
		update.From = &proposed.From
		update.To = &proposed.To

		release, err := s.acquire(ctx, proposed.Slot())
		if err != nil {
			return nil, err
		}
		defer release()
		if err := s.verifySlot(ctx, appt.UserID, proposed.Slot(), appt.ID); err != nil {
			return nil, err
		}
	}

	saved, err := s.store.Update(ctx, appt.ID, update)
	if err != nil {
		return nil, storeError("update", err)
	}
	s.publish(ctx, domain.AppointmentEdited{
		BaseEvent:    domain.BaseEvent{Timestamp: s.now(), AppointmentID: appt.ID},
		Changes:      changes,
		PreviousFrom: appt.From,
		PreviousTo:   appt.To,
		From:         saved.Entity.From,
		To:           saved.Entity.To,
	})
	return saved, nil
}

// CancelAppointment cancels an appointment while the edit window is open.
func (s *Service) CancelAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error) {
	current, err := s.load(ctx, input.Session, input.ID)
	if err != nil {
		return nil, err
	}
	appt := current.Entity
	if err := s.checkWindow(appt); err != nil {
		return nil, err
	}
	return s.transition(ctx, appt, domain.StatusCancelled)
}

// UpdateStatus is the staff flow: it follows the lifecycle but ignores the edit window.
func (s *Service) UpdateStatus(ctx context.Context, input schedtypes.UpdateStatusInput) (*schedtypes.AppointmentProjection, error) {
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	current, err := s.load(ctx, domain.Session{}, input.ID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, current.Entity, status)
}

// GetAppointment loads one appointment.
func (s *Service) GetAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error) {
	return s.load(ctx, input.Session, input.ID)
}

// ListAppointments returns the session user's appointments, earliest first.
func (s *Service) ListAppointments(ctx context.Context, input schedtypes.ListAppointmentsInput) ([]*schedtypes.AppointmentProjection, error) {
	if strings.TrimSpace(input.Session.UserID) == "" {
		return nil, mapError(domain.ErrMissingUser)
	}
	list, err := s.store.ListForUser(ctx, input.Session.UserID)
	if err != nil {
		return nil, storeError("list for user", err)
	}
	schedtypes.SortByStart(list)
	return list, nil
}

// ListAllAppointments is the staff view over every user's appointments, earliest first.
// Date is bucketed in the clinic time zone.
func (s *Service) ListAllAppointments(ctx context.Context, input schedtypes.ListAllAppointmentsInput) ([]*schedtypes.AppointmentProjection, error) {
	filter := ports.AppointmentFilter{}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = status
	}
	if !input.Date.IsZero() {
		filter.From = input.Date.StartIn(s.loc)
		filter.To = input.Date.AddDays(1).StartIn(s.loc)
	}
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeError("list", err)
	}
	schedtypes.SortByStart(list)
	return list, nil
}

func (s *Service) load(ctx context.Context, session domain.Session, id string) (*schedtypes.AppointmentProjection, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: appointment id is required", ErrValidation)
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError("get", err)
	}
	if current == nil || current.Entity == nil {
		return nil, storeError("get", ports.ErrNotFound)
	}
	if session.UserID != "" && current.Entity.UserID != session.UserID {
		return nil, storeError("get", ports.ErrNotFound)
	}
	return current, nil
}

func (s *Service) checkWindow(appt *domain.Appointment) error {
	if s.window.Allows(appt.From, s.now()) {
		return nil
	}
	return &EditWindowError{Threshold: s.window.Threshold, From: appt.From}
}

func (s *Service) transition(ctx context.Context, appt *domain.Appointment, next domain.Status) (*schedtypes.AppointmentProjection, error) {
	previous := appt.Status
	if err := appt.Clone().TransitionTo(next); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.store.SetStatus(ctx, appt.ID, next)
	if err != nil {
		return nil, storeError("set status", err)
	}
	s.publish(ctx, domain.AppointmentStatusChanged{
		BaseEvent:  domain.BaseEvent{Timestamp: s.now(), AppointmentID: appt.ID},
		FromStatus: previous,
		ToStatus:   next,
	})
	return saved, nil
}

// verifySlot re-fetches availability and rejects slots that vanished or overlap an active booking.
func (s *Service) verifySlot(ctx context.Context, userID string, slot domain.TimeSlot, excludeID string) error {
	slots, err := s.slots.ListSlots(ctx)
	if err != nil {
		return storeError("list slots", err)
	}
	current, ok := domain.FindSlot(slots, slot)
	if !ok || !current.Available {
		return fmt.Errorf("%w: %s", ErrSlotConflict, slot)
	}
	active, err := s.activeAround(ctx, userID, slot)
	if err != nil {
		return err
	}
	for _, proj := range active {
		if proj == nil || proj.Entity == nil || proj.Entity.ID == excludeID {
			continue
		}
		if proj.Entity.IsActive() && proj.Entity.Slot().Overlaps(slot) {
			return fmt.Errorf("%w: overlaps appointment %s", ErrSlotConflict, proj.Entity.ID)
		}
	}
	return nil
}

func (s *Service) activeAround(ctx context.Context, userID string, slot domain.TimeSlot) ([]*schedtypes.AppointmentProjection, error) {
	if finder, ok := s.store.(ports.OverlapFinder); ok {
		list, err := finder.ListActiveBetween(ctx, slot.From, slot.To)
		if err != nil {
			return nil, storeError("list active", err)
		}
		return list, nil
	}
	if userID == "" {
		return nil, nil
	}
	list, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeError("list for user", err)
	}
	return list, nil
}

func (s *Service) acquire(ctx context.Context, slot domain.TimeSlot) (func(), error) {
	release, err := s.locker.Acquire(ctx, slot)
	if err != nil {
		if errors.Is(err, ports.ErrSlotLocked) {
			return nil, mapError(err)
		}
		return nil, storeError("lock slot", err)
	}
	return func() {
		if release == nil {
			return
		}
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release slot lock", slog.String("slot", slot.String()), slog.Any("error", err))
		}
	}, nil
}

func (s *Service) replay(ctx context.Context, key, requestHash string) (*schedtypes.AppointmentProjection, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, storeError("get idempotency key", err)
	}
	if record == nil {
		return nil, nil
	}
	if record.RequestHash != requestHash {
		return nil, fmt.Errorf("%w: key %q was used for a different booking", ports.ErrIdempotencyConflict, key)
	}
	saved, err := s.store.Get(ctx, record.AppointmentID)
	if err != nil {
		return nil, storeError("get", err)
	}
	return saved, nil
}

func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish scheduling events", slog.Int("count", len(events)), slog.Any("error", err))
	}
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, domain.TimeSlot) (ports.ReleaseFunc, error) {
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...domain.Event) error {
	return nil
}

var _ ports.Service = (*Service)(nil)
