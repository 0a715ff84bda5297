package clinicapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

var (
	_ ports.SlotProvider     = (*SlotProvider)(nil)
	_ ports.AppointmentStore = (*Store)(nil)
)

// SlotProvider reads published slots from the clinic backend.
type SlotProvider struct {
	client *Client
}

// NewSlotProvider wires a clinic API client into the slot port.
func NewSlotProvider(client *Client) *SlotProvider {
	return &SlotProvider{client: client}
}

// ListSlots returns every slot the backend publishes, booked ones included.
// The date query is left off so the backend answers for the whole horizon.
func (p *SlotProvider) ListSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	var payload []SlotPayload
	if err := p.client.do(ctx, http.MethodGet, "appointments/available-slots", nil, nil, &payload); err != nil {
		return nil, err
	}
	slots := make([]domain.TimeSlot, 0, len(payload))
	for _, s := range payload {
		slots = append(slots, domain.TimeSlot{From: s.From, To: s.To, Available: s.Available})
	}
	return slots, nil
}

// Store persists appointments through the clinic backend.
type Store struct {
	client *Client
}

// NewStore wires a clinic API client into the appointment store port.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Create posts the appointment; the backend assigns its id.
func (s *Store) Create(ctx context.Context, appt *domain.Appointment) (*projection.Projection[*domain.Appointment], error) {
	if appt == nil {
		return nil, errors.New("cannot create nil appointment")
	}
	var out AppointmentPayload
	if err := s.client.do(ctx, http.MethodPost, "appointments", nil, toPayload(appt), &out); err != nil {
		return nil, err
	}
	return out.toProjection(), nil
}

// Update sends only the fields set in the update.
func (s *Store) Update(ctx context.Context, id string, fields ports.AppointmentUpdate) (*projection.Projection[*domain.Appointment], error) {
	path, err := s.client.appointmentPath(id)
	if err != nil {
		return nil, err
	}
	var out AppointmentPayload
	if err := s.client.do(ctx, http.MethodPut, path, nil, toUpdatePayload(fields), &out); err != nil {
		return nil, err
	}
	return out.toProjection(), nil
}

// SetStatus puts the new lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.Status) (*projection.Projection[*domain.Appointment], error) {
	path, err := s.client.appointmentPath(id, "status")
	if err != nil {
		return nil, err
	}
	var out AppointmentPayload
	if err := s.client.do(ctx, http.MethodPut, path, nil, StatusPayload{Status: string(status)}, &out); err != nil {
		return nil, err
	}
	return out.toProjection(), nil
}

// Get fetches one appointment; a backend 404 matches ports.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*projection.Projection[*domain.Appointment], error) {
	path, err := s.client.appointmentPath(id)
	if err != nil {
		return nil, err
	}
	var out AppointmentPayload
	if err := s.client.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.toProjection(), nil
}

// ListForUser lists the appointments the backend holds for userID.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*projection.Projection[*domain.Appointment], error) {
	query, err := s.client.userQuery(userID)
	if err != nil {
		return nil, err
	}
	var out []AppointmentPayload
	if err := s.client.do(ctx, http.MethodGet, "appointments/user", query, nil, &out); err != nil {
		return nil, err
	}
	result := make([]*projection.Projection[*domain.Appointment], 0, len(out))
	for _, p := range out {
		result = append(result, p.toProjection())
	}
	return result, nil
}

// List fetches the clinic-wide listing and applies the filter locally.
func (s *Store) List(ctx context.Context, filter ports.AppointmentFilter) ([]*projection.Projection[*domain.Appointment], error) {
	var out []AppointmentPayload
	if err := s.client.do(ctx, http.MethodGet, "appointments", nil, nil, &out); err != nil {
		return nil, err
	}
	result := make([]*projection.Projection[*domain.Appointment], 0, len(out))
	for _, p := range out {
		proj := p.toProjection()
		if filter.Matches(proj.Entity) {
			result = append(result, proj)
		}
	}
	return result, nil
}
