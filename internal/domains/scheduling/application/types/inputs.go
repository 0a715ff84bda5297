package types

import "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"

// CreateAppointmentInput books a new appointment for the session's user.
// Date is the day picked in the date step; when zero it is derived from Request.From.
type CreateAppointmentInput struct {
	Session        domain.Session
	Request        domain.AppointmentRequest
	Date           domain.LocalDate
	IdempotencyKey string
}

// EditAppointmentInput proposes new pet, services, or slot for an appointment.
type EditAppointmentInput struct {
	Session domain.Session
	ID      string
	Request domain.AppointmentRequest
}

// AppointmentIdentifier addresses one appointment. An empty session skips the ownership check.
type AppointmentIdentifier struct {
	Session domain.Session
	ID      string
}

// UpdateStatusInput is the staff flow for moving an appointment along its lifecycle.
type UpdateStatusInput struct {
	ID     string
	Status string
}

// ListAppointmentsInput lists a user's appointments.
type ListAppointmentsInput struct {
	Session domain.Session
}

// ListAllAppointmentsInput is the staff listing across every user. Status and
// Date are optional; a zero Date lists every day.
type ListAllAppointmentsInput struct {
	Status string
	Date   domain.LocalDate
}

// AvailableDatesInput optionally overrides the configured booking horizon.
type AvailableDatesInput struct {
	WindowDays *int
}

// SlotsForDateInput selects the day whose slots are listed.
type SlotsForDateInput struct {
	Date domain.LocalDate
}
