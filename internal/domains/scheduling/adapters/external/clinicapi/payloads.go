package clinicapi

import (
	"time"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// SlotPayload is a published slot as the clinic backend serves it.
type SlotPayload struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Available bool      `json:"available"`
}

// PaymentPayload is the card-safe payment trace stored by the backend.
type PaymentPayload struct {
	Method    string `json:"paymentMethod"`
	Amount    int64  `json:"amount"`
	CardLast4 string `json:"cardLast4,omitempty"`
	Expiry    string `json:"expiryDate,omitempty"`
}

// AppointmentPayload is the backend's appointment document.
type AppointmentPayload struct {
	ID        string          `json:"_id,omitempty"`
	UserID    string          `json:"userId"`
	PetID     string          `json:"petId"`
	Services  []string        `json:"services"`
	From      time.Time       `json:"appointmentFrom"`
	To        time.Time       `json:"appointmentTo"`
	Status    string          `json:"status"`
	Payment   *PaymentPayload `json:"payment,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
}

// UpdatePayload carries only the fields an edit replaces.
type UpdatePayload struct {
	PetID    *string    `json:"petId,omitempty"`
	Services []string   `json:"services,omitempty"`
	From     *time.Time `json:"appointmentFrom,omitempty"`
	To       *time.Time `json:"appointmentTo,omitempty"`
}

// StatusPayload is the body of a status change.
type StatusPayload struct {
	Status string `json:"status"`
}

func toPayload(appt *domain.Appointment) AppointmentPayload {
	out := AppointmentPayload{
		ID:       appt.ID,
		UserID:   appt.UserID,
		PetID:    appt.PetID,
		Services: serviceNames(appt.Services),
		From:     appt.From,
		To:       appt.To,
		Status:   string(appt.Status),
	}
	if appt.Payment != nil {
		out.Payment = &PaymentPayload{
			Method:    appt.Payment.Method,
			Amount:    appt.Payment.Amount,
			CardLast4: appt.Payment.CardLast4,
			Expiry:    appt.Payment.Expiry,
		}
	}
	return out
}

func toUpdatePayload(fields ports.AppointmentUpdate) UpdatePayload {
	out := UpdatePayload{PetID: fields.PetID, From: fields.From, To: fields.To}
	if fields.Services != nil {
		out.Services = serviceNames(*fields.Services)
	}
	return out
}

func (p AppointmentPayload) toProjection() *schedtypes.AppointmentProjection {
	appt := &domain.Appointment{
		ID:     p.ID,
		UserID: p.UserID,
		PetID:  p.PetID,
		From:   p.From,
		To:     p.To,
		Status: domain.Status(p.Status),
	}
	for _, name := range p.Services {
		svc, err := domain.ParseServiceType(name)
		if err != nil {
			svc = domain.ServiceType(name)
		}
		appt.Services = append(appt.Services, svc)
	}
	if p.Payment != nil {
		appt.Payment = &domain.PaymentRecord{
			Method:    p.Payment.Method,
			Amount:    p.Payment.Amount,
			CardLast4: p.Payment.CardLast4,
			Expiry:    p.Payment.Expiry,
		}
	}
	return schedtypes.NewAppointmentProjection(appt, p.CreatedAt, p.UpdatedAt)
}

func serviceNames(services []domain.ServiceType) []string {
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, string(svc))
	}
	return names
}
