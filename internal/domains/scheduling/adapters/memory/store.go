package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

var (
	_ ports.AppointmentStore = (*Store)(nil)
	_ ports.OverlapFinder    = (*Store)(nil)
)

// Store is an in-memory appointment store used for demos/tests.
type Store struct {
	mu           sync.RWMutex
	appointments map[string]*storedAppointment
	now          func() time.Time
	newID        func() string
}

type storedAppointment struct {
	appt     *domain.Appointment
	metadata projection.Metadata
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		appointments: map[string]*storedAppointment{},
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a new appointment under a fresh identifier.
func (s *Store) Create(_ context.Context, appt *domain.Appointment) (*projection.Projection[*domain.Appointment], error) {
	if appt == nil {
		return nil, errors.New("cannot create nil appointment")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := appt.Clone()
	stored.ID = s.newID()
	if stored.Status == "" {
		stored.Status = domain.StatusPending
	}
	timestamp := s.now()
	entry := &storedAppointment{
		appt:     stored,
		metadata: projection.Metadata{CreatedAt: timestamp, UpdatedAt: timestamp},
	}
	s.appointments[stored.ID] = entry
	return projectionCopy(entry), nil
}

// Update replaces the non-nil fields.
func (s *Store) Update(_ context.Context, id string, fields ports.AppointmentUpdate) (*projection.Projection[*domain.Appointment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.appointments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if fields.PetID != nil {
		entry.appt.PetID = *fields.PetID
	}
	if fields.Services != nil {
		entry.appt.Services = append([]domain.ServiceType(nil), (*fields.Services)...)
	}
	if fields.From != nil {
		entry.appt.From = *fields.From
	}
	if fields.To != nil {
		entry.appt.To = *fields.To
	}
	entry.metadata.UpdatedAt = s.now()
	return projectionCopy(entry), nil
}

// SetStatus overwrites the lifecycle status. Transition rules are enforced by the service.
func (s *Store) SetStatus(_ context.Context, id string, status domain.Status) (*projection.Projection[*domain.Appointment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.appointments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	entry.appt.Status = status
	entry.metadata.UpdatedAt = s.now()
	return projectionCopy(entry), nil
}

// Get fetches an appointment if present.
func (s *Store) Get(_ context.Context, id string) (*projection.Projection[*domain.Appointment], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.appointments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return projectionCopy(entry), nil
}

// ListForUser returns the user's appointments ordered by start.
func (s *Store) ListForUser(_ context.Context, userID string) ([]*projection.Projection[*domain.Appointment], error) {
	return s.filter(func(a *domain.Appointment) bool { return a.UserID == userID }), nil
}

// List returns every appointment passing the filter, ordered by start.
func (s *Store) List(_ context.Context, filter ports.AppointmentFilter) ([]*projection.Projection[*domain.Appointment], error) {
	return s.filter(filter.Matches), nil
}

// ListActiveBetween returns active appointments intersecting [from, to).
func (s *Store) ListActiveBetween(_ context.Context, from, to time.Time) ([]*projection.Projection[*domain.Appointment], error) {
	window := domain.TimeSlot{From: from, To: to}
	return s.filter(func(a *domain.Appointment) bool {
		return a.IsActive() && a.Slot().Overlaps(window)
	}), nil
}

// Len reports how many appointments are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}

func (s *Store) filter(keep func(*domain.Appointment) bool) []*projection.Projection[*domain.Appointment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*projection.Projection[*domain.Appointment], 0)
	for _, entry := range s.appointments {
		if keep(entry.appt) {
			result = append(result, projectionCopy(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Entity.From.Equal(result[j].Entity.From) {
			return result[i].Entity.ID < result[j].Entity.ID
		}
		return result[i].Entity.From.Before(result[j].Entity.From)
	})
	return result
}

func projectionCopy(entry *storedAppointment) *projection.Projection[*domain.Appointment] {
	return projection.New(entry.appt.Clone(), entry.metadata.CreatedAt, entry.metadata.UpdatedAt)
}
