package mapper

import (
	"strings"
	"time"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

// TimeSlot is the HTTP representation of a bookable interval.
type TimeSlot struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Available bool      `json:"available"`
}

// Payment carries card details supplied at booking time. Only create reads it.
type Payment struct {
	Method     string `json:"paymentMethod"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

// AppointmentRequest is the inbound payload for create and edit.
type AppointmentRequest struct {
	PetID    string     `json:"petId"`
	Services []string   `json:"services"`
	From     *time.Time `json:"appointmentFrom"`
	To       *time.Time `json:"appointmentTo"`
	Date     string     `json:"date,omitempty"`
	Payment  *Payment   `json:"payment,omitempty"`
}

// StatusUpdate is the staff payload for lifecycle transitions.
type StatusUpdate struct {
	Status string `json:"status" binding:"required"`
}

// PaymentSummary is the card-safe payment view returned to clients.
type PaymentSummary struct {
	Method    string `json:"paymentMethod"`
	Amount    int64  `json:"amount"`
	CardLast4 string `json:"cardLast4,omitempty"`
	Expiry    string `json:"expiryDate,omitempty"`
}

// Appointment is the HTTP representation of a booked appointment.
type Appointment struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	PetID     string          `json:"petId"`
	Services  []string        `json:"services"`
	From      time.Time       `json:"appointmentFrom"`
	To        time.Time       `json:"appointmentTo"`
	Status    string          `json:"status"`
	Payment   *PaymentSummary `json:"payment,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
}

// AvailableDates lists bookable days as YYYY-MM-DD strings.
type AvailableDates struct {
	Dates []string `json:"dates"`
}

// ToDomainRequest maps the payload onto the domain request. Unknown service
// names pass through untouched so validation can report them.
func ToDomainRequest(input AppointmentRequest) domain.AppointmentRequest {
	req := domain.AppointmentRequest{PetID: strings.TrimSpace(input.PetID)}
	for _, name := range input.Services {
		svc, err := domain.ParseServiceType(name)
		if err != nil {
			svc = domain.ServiceType(name)
		}
		req.Services = append(req.Services, svc)
	}
	if input.From != nil {
		req.From = *input.From
	}
	if input.To != nil {
		req.To = *input.To
	}
	if input.Payment != nil {
		req.Payment = &domain.PaymentDetails{
			Method:     input.Payment.Method,
			CardNumber: input.Payment.CardNumber,
			Expiry:     input.Payment.Expiry,
			CVV:        input.Payment.CVV,
		}
	}
	return req
}

// ToCreateInput builds the create use case input. An empty date is derived from the slot.
func ToCreateInput(session domain.Session, idempotencyKey string, input AppointmentRequest) (schedtypes.CreateAppointmentInput, error) {
	result := schedtypes.CreateAppointmentInput{
		Session:        session,
		Request:        ToDomainRequest(input),
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
	if strings.TrimSpace(input.Date) != "" {
		date, err := domain.ParseLocalDate(strings.TrimSpace(input.Date))
		if err != nil {
			return schedtypes.CreateAppointmentInput{}, err
		}
		result.Date = date
	}
	return result, nil
}

// ToEditInput builds the edit use case input.
func ToEditInput(session domain.Session, id string, input AppointmentRequest) schedtypes.EditAppointmentInput {
	return schedtypes.EditAppointmentInput{Session: session, ID: id, Request: ToDomainRequest(input)}
}

// FromProjection maps a projection into the response payload.
func FromProjection(p *schedtypes.AppointmentProjection) Appointment {
	if p == nil || p.Entity == nil {
		return Appointment{}
	}
	appt := p.Entity
	out := Appointment{
		ID:        appt.ID,
		UserID:    appt.UserID,
		PetID:     appt.PetID,
		Services:  serviceNames(appt.Services),
		From:      appt.From,
		To:        appt.To,
		Status:    string(appt.Status),
		CreatedAt: p.Metadata.CreatedAt,
		UpdatedAt: p.Metadata.UpdatedAt,
	}
	if appt.Payment != nil {
		out.Payment = &PaymentSummary{
			Method:    appt.Payment.Method,
			Amount:    appt.Payment.Amount,
			CardLast4: appt.Payment.CardLast4,
			Expiry:    appt.Payment.Expiry,
		}
	}
	return out
}

// FromProjectionList maps projections, skipping nil entries.
func FromProjectionList(list []*schedtypes.AppointmentProjection) []Appointment {
	result := make([]Appointment, 0, len(list))
	for _, p := range list {
		if p == nil || p.Entity == nil {
			continue
		}
		result = append(result, FromProjection(p))
	}
	return result
}

// FromSlots maps domain slots into response payloads.
func FromSlots(slots []domain.TimeSlot) []TimeSlot {
	result := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, TimeSlot{From: slot.From, To: slot.To, Available: slot.Available})
	}
	return result
}

// FromDates maps local dates into their YYYY-MM-DD form.
func FromDates(dates []domain.LocalDate) AvailableDates {
	out := AvailableDates{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		out.Dates = append(out.Dates, d.String())
	}
	return out
}

func serviceNames(services []domain.ServiceType) []string {
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, string(svc))
	}
	return names
}
