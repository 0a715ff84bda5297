package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status represents the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ServiceType is one of the treatments offered by the clinic.
type ServiceType string

const (
	ServiceOPD         ServiceType = "OPD"
	ServiceSurgery     ServiceType = "Surgery"
	ServiceVaccination ServiceType = "Vaccination"
	ServiceGrooming    ServiceType = "Grooming"
)

// BookingFee is charged for every new booking.
const BookingFee int64 = 500

var (
	ErrUnknownService      = errors.New("unknown service type")
	ErrInvalidStatus       = errors.New("appointment status is invalid")
	ErrInvalidTransition   = errors.New("appointment status transition is not allowed")
	ErrAppointmentInactive = errors.New("appointment is no longer active")
	ErrMissingUser         = errors.New("appointment must belong to a user")
)

// Services lists every offered service in display order.
func Services() []ServiceType {
	return []ServiceType{ServiceOPD, ServiceSurgery, ServiceVaccination, ServiceGrooming}
}

// ParseServiceType matches a service name case-insensitively.
func ParseServiceType(value string) (ServiceType, error) {
	trimmed := strings.TrimSpace(value)
	for _, svc := range Services() {
		if strings.EqualFold(trimmed, string(svc)) {
			return svc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, value)
}

// Valid reports whether the service belongs to the closed clinic set.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceOPD, ServiceSurgery, ServiceVaccination, ServiceGrooming:
		return true
	default:
		return false
	}
}

// ParseStatus validates a lifecycle value.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is part of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session identifies the caller on whose behalf the scheduling operation runs.
type Session struct {
	UserID string
}

// PaymentRecord is the persisted, card-safe trace of a booking payment.
type PaymentRecord struct {
	Method    string
	Amount    int64
	CardLast4 string
	Expiry    string
}

// Appointment is the aggregate owned by the appointment store.
type Appointment struct {
	ID       string
	UserID   string
	PetID    string
	Services []ServiceType
	From     time.Time
	To       time.Time
	Status   Status
	Payment  *PaymentRecord
}

// NewAppointment materializes a pending appointment from a validated request.
func NewAppointment(session Session, req AppointmentRequest) *Appointment {
	appt := &Appointment{
		UserID:   session.UserID,
		PetID:    strings.TrimSpace(req.PetID),
		Services: NormalizeServices(req.Services),
		From:     req.From,
		To:       req.To,
		Status:   StatusPending,
	}
	if req.Payment != nil {
		appt.Payment = req.Payment.Record(BookingFee)
	}
	return appt
}

// Slot returns the booked interval. Booked intervals are never reported as available.
func (a *Appointment) Slot() TimeSlot {
	return TimeSlot{From: a.From, To: a.To}
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// TransitionTo moves the appointment along the lifecycle.
func (a *Appointment) TransitionTo(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if !CanTransition(a.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}

// Reschedule applies the proposed fields flagged in changes.
func (a *Appointment) Reschedule(req AppointmentRequest, changes ChangeSet) {
	if changes.PetChanged {
		a.PetID = strings.TrimSpace(req.PetID)
	}
	if changes.ServiceChanged {
		a.Services = NormalizeServices(req.Services)
	}
	if changes.SlotChanged {
		a.From = req.From
		a.To = req.To
	}
}

// Clone returns a deep copy.
func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Services = append([]ServiceType(nil), a.Services...)
	if a.Payment != nil {
		payment := *a.Payment
		clone.Payment = &payment
	}
	return &clone
}

// NormalizeServices de-duplicates and sorts services so they compare as a set.
func NormalizeServices(services []ServiceType) []ServiceType {
	seen := make(map[ServiceType]struct{}, len(services))
	result := make([]ServiceType, 0, len(services))
	for _, svc := range services {
		if parsed, err := ParseServiceType(string(svc)); err == nil {
			svc = parsed
		}
		if _, ok := seen[svc]; ok {
			continue
		}
		seen[svc] = struct{}{}
		result = append(result, svc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// SameServices compares two service lists as sets.
func SameServices(a, b []ServiceType) bool {
	left, right := NormalizeServices(a), NormalizeServices(b)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
