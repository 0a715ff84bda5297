package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp     time.Time
	AppointmentID string
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the appointment the event belongs to.
func (e BaseEvent) AggregateID() string {
	return e.AppointmentID
}

// AppointmentBooked is raised when a new appointment is accepted.
type AppointmentBooked struct {
	BaseEvent
	UserID   string
	PetID    string
	Services []ServiceType
	From     time.Time
	To       time.Time
}

func (e AppointmentBooked) EventName() string {
	return "scheduling.appointment.booked"
}

// AppointmentEdited is raised when pet, services, or slot change.
type AppointmentEdited struct {
	BaseEvent
	Changes      ChangeSet
	PreviousFrom time.Time
	PreviousTo   time.Time
	From         time.Time
	To           time.Time
}

func (e AppointmentEdited) EventName() string {
	return "scheduling.appointment.edited"
}

// AppointmentStatusChanged is raised for every lifecycle transition, cancellation included.
type AppointmentStatusChanged struct {
	BaseEvent
	FromStatus Status
	ToStatus   Status
}

func (e AppointmentStatusChanged) EventName() string {
	if e.ToStatus == StatusCancelled {
		return "scheduling.appointment.cancelled"
	}
	return "scheduling.appointment.status_changed"
}
