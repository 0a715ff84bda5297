package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validationNow = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func validRequest() AppointmentRequest {
	return AppointmentRequest{
		PetID:    "pet-1",
		Services: []ServiceType{ServiceOPD},
		From:     at(9, 0),
		To:       at(9, 30),
		Payment: &PaymentDetails{
			Method:     "card",
			CardNumber: "4111 1111 1111 1111",
			Expiry:     "12/27",
			CVV:        "123",
		},
	}
}

func selectionFor(req AppointmentRequest) Selection {
	slot := req.Slot()
	return Selection{Date: DateOf(req.From, time.UTC), Slot: &slot, Location: time.UTC}
}

func TestValidateForCreate_AcceptsCompleteRequest(t *testing.T) {
	req := validRequest()
	require.NoError(t, ValidateForCreate(req, selectionFor(req), validationNow))
}

func TestValidateForCreate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppointmentRequest, *Selection)
		want   error
	}{
		{"missing pet", func(r *AppointmentRequest, _ *Selection) { r.PetID = "  " }, ErrMissingPet},
		{"missing service", func(r *AppointmentRequest, _ *Selection) { r.Services = nil }, ErrMissingService},
		{"unknown service", func(r *AppointmentRequest, _ *Selection) { r.Services = []ServiceType{"Dentistry"} }, ErrUnknownService},
		{"missing slot", func(_ *AppointmentRequest, s *Selection) { s.Slot = nil }, ErrMissingSlot},
		{"missing date", func(_ *AppointmentRequest, s *Selection) { s.Date = LocalDate{} }, ErrMissingSlot},
		{"inverted slot", func(_ *AppointmentRequest, s *Selection) { s.Slot = &TimeSlot{From: at(10, 0), To: at(9, 0)} }, ErrInvalidSlot},
		{"slot on other day", func(_ *AppointmentRequest, s *Selection) { s.Date = s.Date.AddDays(1) }, ErrSlotDateMismatch},
		{"missing payment", func(r *AppointmentRequest, _ *Selection) { r.Payment = nil }, ErrMissingPaymentMethod},
		{"blank method", func(r *AppointmentRequest, _ *Selection) { r.Payment.Method = "" }, ErrMissingPaymentMethod},
		{"15 digit card", func(r *AppointmentRequest, _ *Selection) { r.Payment.CardNumber = "4111 1111 1111 111" }, ErrInvalidCardNumber},
		{"letters in card", func(r *AppointmentRequest, _ *Selection) { r.Payment.CardNumber = "4111-1111-1111-111a" }, ErrInvalidCardNumber},
		{"expired card", func(r *AppointmentRequest, _ *Selection) { r.Payment.Expiry = "01/20" }, ErrExpiredCard},
		{"malformed expiry", func(r *AppointmentRequest, _ *Selection) { r.Payment.Expiry = "1/2030" }, ErrExpiredCard},
		{"month out of range", func(r *AppointmentRequest, _ *Selection) { r.Payment.Expiry = "13/30" }, ErrExpiredCard},
		{"short cvv", func(r *AppointmentRequest, _ *Selection) { r.Payment.CVV = "12" }, ErrInvalidCVV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			payment := *req.Payment
			req.Payment = &payment
			sel := selectionFor(req)
			tc.mutate(&req, &sel)
			require.ErrorIs(t, ValidateForCreate(req, sel, validationNow), tc.want)
		})
	}
}

func TestValidateExpiry_CurrentMonthIsStillValid(t *testing.T) {
	require.NoError(t, ValidateExpiry("06/24", validationNow))
	require.ErrorIs(t, ValidateExpiry("05/24", validationNow), ErrExpiredCard)
}

func TestPaymentDetails_RecordKeepsLastFour(t *testing.T) {
	record := PaymentDetails{Method: "card", CardNumber: "4111-1111-1111-4242", Expiry: "12/27", CVV: "123"}.Record(BookingFee)

	assert.Equal(t, "4242", record.CardLast4)
	assert.Equal(t, BookingFee, record.Amount)
	assert.Equal(t, "card", record.Method)
}

func originalAppointment() Appointment {
	return Appointment{
		ID:       "appt-1",
		UserID:   "user-1",
		PetID:    "pet-1",
		Services: []ServiceType{ServiceOPD, ServiceGrooming},
		From:     at(9, 0),
		To:       at(9, 30),
		Status:   StatusPending,
	}
}

func TestValidateForEdit_NoChangeDetected(t *testing.T) {
	original := originalAppointment()
	proposed := AppointmentRequest{
		PetID:    original.PetID,
		Services: []ServiceType{ServiceGrooming, ServiceOPD},
		From:     original.From,
		To:       original.To,
	}

	changes, err := ValidateForEdit(original, proposed)

	require.ErrorIs(t, err, ErrNoChangeDetected)
	require.False(t, changes.Any())
}

func TestValidateForEdit_ReportsEachChange(t *testing.T) {
	original := originalAppointment()
	base := AppointmentRequest{PetID: original.PetID, Services: original.Services, From: original.From, To: original.To}

	pet := base
	pet.PetID = "pet-2"
	changes, err := ValidateForEdit(original, pet)
	require.NoError(t, err)
	require.Equal(t, ChangeSet{PetChanged: true}, changes)

	svc := base
	svc.Services = []ServiceType{ServiceOPD}
	changes, err = ValidateForEdit(original, svc)
	require.NoError(t, err)
	require.Equal(t, ChangeSet{ServiceChanged: true}, changes)

	slot := base
	slot.From, slot.To = at(9, 30), at(10, 0)
	changes, err = ValidateForEdit(original, slot)
	require.NoError(t, err)
	require.Equal(t, ChangeSet{SlotChanged: true}, changes)
}

func TestValidateForEdit_MissingFields(t *testing.T) {
	original := originalAppointment()

	_, err := ValidateForEdit(original, AppointmentRequest{Services: original.Services, From: original.From, To: original.To})
	require.ErrorIs(t, err, ErrMissingPet)

	_, err = ValidateForEdit(original, AppointmentRequest{PetID: "pet-1", From: original.From, To: original.To})
	require.ErrorIs(t, err, ErrMissingService)

	_, err = ValidateForEdit(original, AppointmentRequest{PetID: "pet-1", Services: original.Services})
	require.ErrorIs(t, err, ErrMissingSlot)
}
