package mapper

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

func TestToCreateInput_ParsesServicesAndDate(t *testing.T) {
	from := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	to := from.Add(30 * time.Minute)
	payload := AppointmentRequest{
		PetID:    " pet-1 ",
		Services: []string{"opd", "Dentistry"},
		From:     &from,
		To:       &to,
		Date:     "2024-06-01",
		Payment:  &Payment{Method: "card", CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123"},
	}

	input, err := ToCreateInput(domain.Session{UserID: "user-1"}, " key-1 ", payload)

	require.NoError(t, err)
	assert.Equal(t, "pet-1", input.Request.PetID)
	assert.Equal(t, []domain.ServiceType{domain.ServiceOPD, "Dentistry"}, input.Request.Services)
	assert.Equal(t, domain.LocalDate{Year: 2024, Month: time.June, Day: 1}, input.Date)
	assert.Equal(t, "key-1", input.IdempotencyKey)
	require.NotNil(t, input.Request.Payment)
	assert.Equal(t, "123", input.Request.Payment.CVV)
}

func TestToCreateInput_RejectsMalformedDate(t *testing.T) {
	_, err := ToCreateInput(domain.Session{UserID: "user-1"}, "", AppointmentRequest{Date: "06/01/2024"})
	require.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestFromProjection_ExposesMaskedPaymentOnly(t *testing.T) {
	created := time.Date(2024, time.May, 30, 0, 0, 0, 0, time.UTC)
	appt := &domain.Appointment{
		ID:       "appt-1",
		UserID:   "user-1",
		PetID:    "pet-1",
		Services: []domain.ServiceType{domain.ServiceGrooming},
		Status:   domain.StatusPending,
		Payment:  &domain.PaymentRecord{Method: "card", Amount: domain.BookingFee, CardLast4: "1111"},
	}

	out := FromProjection(schedtypes.NewAppointmentProjection(appt, created, created))

	assert.Equal(t, "appt-1", out.ID)
	assert.Equal(t, []string{"Grooming"}, out.Services)
	assert.Equal(t, "pending", out.Status)
	require.NotNil(t, out.Payment)
	assert.Equal(t, "1111", out.Payment.CardLast4)
	assert.Equal(t, created, out.CreatedAt)
}

func TestFromProjectionList_SkipsNil(t *testing.T) {
	list := []*schedtypes.AppointmentProjection{nil, schedtypes.NewAppointmentProjection(&domain.Appointment{ID: "a"}, time.Time{}, time.Time{})}
	require.Len(t, FromProjectionList(list), 1)
}

func TestFromDates_FormatsIsoDays(t *testing.T) {
	out := FromDates([]domain.LocalDate{{Year: 2024, Month: time.June, Day: 1}})
	require.Equal(t, []string{"2024-06-01"}, out.Dates)
	require.NotNil(t, FromDates(nil).Dates)
}

func TestProblemFromError_Statuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: %w", application.ErrValidation, domain.ErrMissingPet), http.StatusBadRequest},
		{"slot conflict", application.ErrSlotConflict, http.StatusConflict},
		{"idempotency", ports.ErrIdempotencyConflict, http.StatusConflict},
		{"edit window", &application.EditWindowError{Threshold: 24 * time.Hour}, http.StatusUnprocessableEntity},
		{"not found", &application.StoreError{Op: "get", Err: ports.ErrNotFound}, http.StatusNotFound},
		{"store", &application.StoreError{Op: "create", Err: errors.New("boom")}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problem, ok := ProblemFromError(tc.err)
			require.True(t, ok)
			require.Equal(t, tc.want, problem.Status)
		})
	}

	_, ok := ProblemFromError(errors.New("unexpected"))
	require.False(t, ok)
}
