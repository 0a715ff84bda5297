package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schedmemory "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/memory"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

var testNow = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

func slotAt(day, hour, minute int, available bool) domain.TimeSlot {
	from := time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
	return domain.TimeSlot{From: from, To: from.Add(30 * time.Minute), Available: available}
}

// countingStore records mutations so tests can assert none happened.
type countingStore struct {
	*schedmemory.Store
	updates   int
	statusSet int
}

func (c *countingStore) Update(ctx context.Context, id string, fields ports.AppointmentUpdate) (*projection.Projection[*domain.Appointment], error) {
	c.updates++
	return c.Store.Update(ctx, id, fields)
}

func (c *countingStore) SetStatus(ctx context.Context, id string, status domain.Status) (*projection.Projection[*domain.Appointment], error) {
	c.statusSet++
	return c.Store.SetStatus(ctx, id, status)
}

type fixture struct {
	svc       *Service
	store     *countingStore
	slots     *schedmemory.SlotProvider
	events    *schedmemory.Publisher
	idem      *schedmemory.IdempotencyStore
	clock     *time.Time
	threshold time.Duration
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	now := testNow
	f := &fixture{
		store: &countingStore{Store: schedmemory.NewStore()},
		slots: schedmemory.NewSlotProvider(
			slotAt(3, 10, 0, true),
			slotAt(3, 9, 0, true),
			slotAt(3, 9, 30, true),
			slotAt(3, 11, 0, false),
			slotAt(4, 9, 0, true),
			slotAt(1, 13, 0, true),
		),
		events:    schedmemory.NewPublisher(),
		idem:      schedmemory.NewIdempotencyStore(),
		clock:     &now,
		threshold: 24 * time.Hour,
	}
	base := []Option{
		WithClock(func() time.Time { return *f.clock }),
		WithLocation(time.UTC),
		WithEditWindow(f.threshold),
		WithEventPublisher(f.events),
		WithIdempotencyStore(f.idem),
		WithSlotLocker(schedmemory.NewSlotLocker()),
	}
	f.svc = NewService(f.slots, f.store, append(base, opts...)...)
	return f
}

func bookingRequest(slot domain.TimeSlot) domain.AppointmentRequest {
	return domain.AppointmentRequest{
		PetID:    "pet-1",
		Services: []domain.ServiceType{domain.ServiceVaccination, domain.ServiceOPD},
		From:     slot.From,
		To:       slot.To,
		Payment: &domain.PaymentDetails{
			Method:     "card",
			CardNumber: "4111 1111 1111 1111",
			Expiry:     "12/27",
			CVV:        "123",
		},
	}
}

func (f *fixture) book(t *testing.T, userID string, slot domain.TimeSlot) *schedtypes.AppointmentProjection {
	t.Helper()
	proj, err := f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: userID},
		Request: bookingRequest(slot),
	})
	require.NoError(t, err)
	return proj
}

func TestCreateAppointment_RoundTripsThroughStore(t *testing.T) {
	f := newFixture(t)
	slot := slotAt(3, 9, 0, true)

	created := f.book(t, "user-1", slot)
	require.Equal(t, domain.StatusPending, created.Entity.Status)
	require.Equal(t, domain.BookingFee, created.Entity.Payment.Amount)
	require.Equal(t, "1111", created.Entity.Payment.CardLast4)

	fetched, err := f.svc.GetAppointment(context.Background(), schedtypes.AppointmentIdentifier{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "pet-1", fetched.Entity.PetID)
	require.True(t, domain.SameServices(bookingRequest(slot).Services, fetched.Entity.Services))
	require.True(t, slot.From.Equal(fetched.Entity.From))
	require.True(t, slot.To.Equal(fetched.Entity.To))

	events := f.events.Events()
	require.Len(t, events, 1)
	require.Equal(t, "scheduling.appointment.booked", events[0].EventName())
}

func TestCreateAppointment_SecondBookerGetsSlotConflict(t *testing.T) {
	f := newFixture(t)
	slot := slotAt(3, 9, 0, true)
	f.book(t, "user-1", slot)

	_, err := f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-2"},
		Request: bookingRequest(slot),
	})

	require.ErrorIs(t, err, ErrSlotConflict)
	require.Equal(t, 1, f.store.Len())
}

func TestCreateAppointment_RechecksProviderAvailability(t *testing.T) {
	f := newFixture(t)
	slot := slotAt(3, 9, 30, true)
	require.True(t, f.slots.SetAvailability(slot, false))

	_, err := f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		Request: bookingRequest(slot),
	})
	require.ErrorIs(t, err, ErrSlotConflict)

	unknown := slotAt(3, 9, 15, true)
	_, err = f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		Request: bookingRequest(unknown),
	})
	require.ErrorIs(t, err, ErrSlotConflict)
	require.Zero(t, f.store.Len())
}

func TestCreateAppointment_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	req := bookingRequest(slotAt(3, 9, 0, true))
	req.Payment.CardNumber = "4111 1111 1111 111"

	_, err := f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		Request: req,
	})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidCardNumber)

	_, err = f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Request: bookingRequest(slotAt(3, 9, 0, true)),
	})
	require.ErrorIs(t, err, domain.ErrMissingUser)

	req = bookingRequest(slotAt(3, 9, 0, true))
	_, err = f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		Request: req,
		Date:    domain.LocalDate{Year: 2024, Month: time.June, Day: 4},
	})
	require.ErrorIs(t, err, domain.ErrSlotDateMismatch)
	require.Zero(t, f.store.Len())
}

func TestCreateAppointment_SlotProviderFailureIsStoreError(t *testing.T) {
	f := newFixture(t)
	f.slots.FailWith(errors.New("backend unavailable"))

	_, err := f.svc.CreateAppointment(context.Background(), schedtypes.CreateAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		Request: bookingRequest(slotAt(3, 9, 0, true)),
	})

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "list slots", storeErr.Op)
	require.Contains(t, err.Error(), "backend unavailable")
}

func TestCreateAppointment_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	input := schedtypes.CreateAppointmentInput{
		Session:        domain.Session{UserID: "user-1"},
		Request:        bookingRequest(slotAt(3, 9, 0, true)),
		IdempotencyKey: "booking-1",
	}

	first, err := f.svc.CreateAppointment(context.Background(), input)
	require.NoError(t, err)
	second, err := f.svc.CreateAppointment(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, first.Entity.ID, second.Entity.ID)
	require.Equal(t, 1, f.store.Len())

	changed := input
	changed.Request = bookingRequest(slotAt(3, 9, 30, true))
	_, err = f.svc.CreateAppointment(context.Background(), changed)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestEditAppointment_EditWindowClosed(t *testing.T) {
	f := newFixture(t, WithEditWindow(6*time.Hour))
	slot := slotAt(1, 13, 0, true) // five hours after testNow
	created := f.book(t, "user-1", slot)

	req := bookingRequest(slot)
	req.PetID = "pet-2"
	_, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
		Request: req,
	})

	require.ErrorIs(t, err, ErrEditWindowClosed)
	var windowErr *EditWindowError
	require.ErrorAs(t, err, &windowErr)
	require.Equal(t, 6*time.Hour, windowErr.Threshold)
	require.Contains(t, err.Error(), "6h0m0s")
	require.Zero(t, f.store.updates)
}

func TestEditAppointment_NoChangeDetectedDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	slot := slotAt(3, 9, 0, true)
	created := f.book(t, "user-1", slot)

	_, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
		Request: domain.AppointmentRequest{
			PetID:    "pet-1",
			Services: []domain.ServiceType{domain.ServiceOPD, domain.ServiceVaccination},
			From:     slot.From,
			To:       slot.To,
		},
	})

	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, domain.ErrNoChangeDetected)
	require.Zero(t, f.store.updates)
}

func TestEditAppointment_MovesToFreeSlot(t *testing.T) {
	f := newFixture(t)
	created := f.book(t, "user-1", slotAt(3, 9, 0, true))
	target := slotAt(3, 10, 0, true)

	req := bookingRequest(target)
	req.Payment = nil
	updated, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
		Request: req,
	})

	require.NoError(t, err)
	require.True(t, target.From.Equal(updated.Entity.From))
	require.Equal(t, 1, f.store.updates)
	events := f.events.Events()
	require.Equal(t, "scheduling.appointment.edited", events[len(events)-1].EventName())
}

func TestEditAppointment_ServiceOnlyChangeKeepsOwnSlot(t *testing.T) {
	f := newFixture(t)
	slot := slotAt(3, 9, 0, true)
	created := f.book(t, "user-1", slot)

	req := bookingRequest(slot)
	req.Services = []domain.ServiceType{domain.ServiceGrooming}
	updated, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
		Request: req,
	})

	require.NoError(t, err)
	require.Equal(t, []domain.ServiceType{domain.ServiceGrooming}, updated.Entity.Services)
}

func TestEditAppointment_TakenSlotConflicts(t *testing.T) {
	f := newFixture(t)
	f.book(t, "user-2", slotAt(3, 9, 30, true))
	mine := f.book(t, "user-1", slotAt(3, 9, 0, true))

	_, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "user-1"},
		ID:      mine.Entity.ID,
		Request: bookingRequest(slotAt(3, 9, 30, true)),
	})

	require.ErrorIs(t, err, ErrSlotConflict)
	require.Zero(t, f.store.updates)
}

func TestEditAppointment_OtherUsersAppointmentIsNotFound(t *testing.T) {
	f := newFixture(t)
	created := f.book(t, "user-1", slotAt(3, 9, 0, true))

	_, err := f.svc.EditAppointment(context.Background(), schedtypes.EditAppointmentInput{
		Session: domain.Session{UserID: "intruder"},
		ID:      created.Entity.ID,
		Request: bookingRequest(slotAt(3, 10, 0, true)),
	})

	require.ErrorIs(t, err, ports.ErrNotFound)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t)
	created := f.book(t, "user-1", slotAt(3, 9, 0, true))

	cancelled, err := f.svc.CancelAppointment(context.Background(), schedtypes.AppointmentIdentifier{
		Session: domain.Session{UserID: "user-1"},
		ID:      created.Entity.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Entity.Status)

	_, err = f.svc.CancelAppointment(context.Background(), schedtypes.AppointmentIdentifier{ID: created.Entity.ID})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// The freed slot can be booked again.
	f.book(t, "user-2", slotAt(3, 9, 0, true))
}

func TestCancelAppointment_InsideWindowIsRejected(t *testing.T) {
	f := newFixture(t)
	created := f.book(t, "user-1", slotAt(3, 9, 0, true))
	*f.clock = slotAt(3, 9, 0, true).From.Add(-24 * time.Hour)

	_, err := f.svc.CancelAppointment(context.Background(), schedtypes.AppointmentIdentifier{ID: created.Entity.ID})

	require.ErrorIs(t, err, ErrEditWindowClosed)
	require.Zero(t, f.store.statusSet)
}

func TestUpdateStatus_FollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	created := f.book(t, "user-1", slotAt(1, 13, 0, true))

	confirmed, err := f.svc.UpdateStatus(context.Background(), schedtypes.UpdateStatusInput{ID: created.Entity.ID, Status: "confirmed"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, confirmed.Entity.Status)

	completed, err := f.svc.UpdateStatus(context.Background(), schedtypes.UpdateStatusInput{ID: created.Entity.ID, Status: "completed"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, completed.Entity.Status)

	_, err = f.svc.UpdateStatus(context.Background(), schedtypes.UpdateStatusInput{ID: created.Entity.ID, Status: "pending"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), schedtypes.UpdateStatusInput{ID: created.Entity.ID, Status: "archived"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetAppointment_MissingIsNotFoundStoreError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetAppointment(context.Background(), schedtypes.AppointmentIdentifier{ID: "missing"})

	require.ErrorIs(t, err, ports.ErrNotFound)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Op)
}

func TestListAppointments_SortedByStart(t *testing.T) {
	f := newFixture(t)
	f.book(t, "user-1", slotAt(4, 9, 0, true))
	f.book(t, "user-1", slotAt(3, 9, 0, true))
	f.book(t, "user-2", slotAt(3, 10, 0, true))

	list, err := f.svc.ListAppointments(context.Background(), schedtypes.ListAppointmentsInput{Session: domain.Session{UserID: "user-1"}})

	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].Entity.From.Before(list[1].Entity.From))
}

func TestListAllAppointments_AcrossUsersByDayAndStatus(t *testing.T) {
	f := newFixture(t)
	f.book(t, "user-1", slotAt(4, 9, 0, true))
	f.book(t, "user-2", slotAt(3, 9, 0, true))
	late := f.book(t, "user-3", slotAt(3, 10, 0, true))
	ctx := context.Background()

	all, err := f.svc.ListAllAppointments(ctx, schedtypes.ListAllAppointmentsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "user-2", all[0].Entity.UserID)

	day := domain.LocalDate{Year: 2024, Month: time.June, Day: 3}
	onDay, err := f.svc.ListAllAppointments(ctx, schedtypes.ListAllAppointmentsInput{Date: day})
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, "user-3", onDay[1].Entity.UserID)

	_, err = f.svc.UpdateStatus(ctx, schedtypes.UpdateStatusInput{ID: late.Entity.ID, Status: "confirmed"})
	require.NoError(t, err)
	confirmed, err := f.svc.ListAllAppointments(ctx, schedtypes.ListAllAppointmentsInput{Date: day, Status: "Confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, late.Entity.ID, confirmed[0].Entity.ID)

	_, err = f.svc.ListAllAppointments(ctx, schedtypes.ListAllAppointmentsInput{Status: "archived"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestListAllAppointments_DayFollowsClinicZone(t *testing.T) {
	f := newFixture(t, WithLocation(time.FixedZone("HST", -10*3600)))
	f.book(t, "user-1", slotAt(4, 9, 0, true))
	f.book(t, "user-2", slotAt(3, 9, 0, true))
	f.book(t, "user-3", slotAt(3, 10, 0, true))

	list, err := f.svc.ListAllAppointments(context.Background(), schedtypes.ListAllAppointmentsInput{
		Date: domain.LocalDate{Year: 2024, Month: time.June, Day: 3},
	})

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "user-3", list[0].Entity.UserID)
	assert.Equal(t, "user-1", list[1].Entity.UserID)
}

func TestAvailableDatesAndSlotsForDate(t *testing.T) {
	f := newFixture(t)

	dates, err := f.svc.AvailableDates(context.Background(), schedtypes.AvailableDatesInput{})
	require.NoError(t, err)
	require.Equal(t, []domain.LocalDate{
		{Year: 2024, Month: time.June, Day: 1},
		{Year: 2024, Month: time.June, Day: 3},
		{Year: 2024, Month: time.June, Day: 4},
	}, dates)

	zero := 0
	dates, err = f.svc.AvailableDates(context.Background(), schedtypes.AvailableDatesInput{WindowDays: &zero})
	require.NoError(t, err)
	require.Equal(t, []domain.LocalDate{{Year: 2024, Month: time.June, Day: 1}}, dates)

	slots, err := f.svc.SlotsForDate(context.Background(), schedtypes.SlotsForDateInput{Date: domain.LocalDate{Year: 2024, Month: time.June, Day: 3}})
	require.NoError(t, err)
	require.Equal(t, []domain.TimeSlot{slotAt(3, 9, 0, true), slotAt(3, 9, 30, true), slotAt(3, 10, 0, true)}, slots)
}
