package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAppointment_StartsPendingWithMaskedPayment(t *testing.T) {
	appt := NewAppointment(Session{UserID: "user-1"}, validRequest())

	require.Equal(t, StatusPending, appt.Status)
	require.Equal(t, "user-1", appt.UserID)
	require.Equal(t, "1111", appt.Payment.CardLast4)
	require.True(t, appt.IsActive())
}

func TestAppointment_TransitionTo(t *testing.T) {
	appt := NewAppointment(Session{UserID: "user-1"}, validRequest())

	require.NoError(t, appt.TransitionTo(StatusConfirmed))
	require.NoError(t, appt.TransitionTo(StatusCompleted))
	require.False(t, appt.IsActive())
	require.ErrorIs(t, appt.TransitionTo(StatusCancelled), ErrInvalidTransition)
	require.ErrorIs(t, appt.TransitionTo("archived"), ErrInvalidStatus)
}

func TestAppointment_PendingCanBeCancelled(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusCancelled))
	require.True(t, CanTransition(StatusConfirmed, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusPending))
	require.False(t, CanTransition(StatusPending, StatusCompleted))
}

func TestParseServiceType_IsCaseInsensitive(t *testing.T) {
	svc, err := ParseServiceType("vaccination")
	require.NoError(t, err)
	require.Equal(t, ServiceVaccination, svc)

	_, err = ParseServiceType("Dentistry")
	require.ErrorIs(t, err, ErrUnknownService)
}

func TestSameServices_ComparesAsSets(t *testing.T) {
	require.True(t, SameServices(
		[]ServiceType{ServiceOPD, ServiceSurgery, ServiceOPD},
		[]ServiceType{"surgery", ServiceOPD},
	))
	require.False(t, SameServices([]ServiceType{ServiceOPD}, []ServiceType{ServiceSurgery}))
}

func TestAppointment_RescheduleAppliesFlaggedFields(t *testing.T) {
	appt := originalAppointment()
	req := AppointmentRequest{PetID: "pet-2", Services: []ServiceType{ServiceSurgery}, From: at(11, 0), To: at(11, 30)}

	appt.Reschedule(req, ChangeSet{SlotChanged: true})

	require.Equal(t, "pet-1", appt.PetID)
	require.Equal(t, at(11, 0), appt.From)
	require.Equal(t, []ServiceType{ServiceOPD, ServiceGrooming}, appt.Services)
}

func TestAppointment_CloneIsDeep(t *testing.T) {
	appt := NewAppointment(Session{UserID: "user-1"}, validRequest())
	clone := appt.Clone()
	clone.Services[0] = ServiceSurgery
	clone.Payment.CardLast4 = "0000"

	require.Equal(t, ServiceOPD, appt.Services[0])
	require.Equal(t, "1111", appt.Payment.CardLast4)
}
