package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

// ErrNotFound is returned by stores when no appointment has the requested id.
var ErrNotFound = errors.New("appointment not found")

// AppointmentFilter narrows a clinic-wide listing. Zero fields match everything;
// From and To select appointments starting in [From, To).
type AppointmentFilter struct {
	Status domain.Status
	From   time.Time
	To     time.Time
}

// Matches reports whether the appointment passes the filter.
func (f AppointmentFilter) Matches(appt *domain.Appointment) bool {
	if appt == nil {
		return false
	}
	if f.Status != "" && appt.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && appt.From.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !appt.From.Before(f.To) {
		return false
	}
	return true
}

// AppointmentUpdate lists the fields an edit may replace. Nil fields are left untouched.
type AppointmentUpdate struct {
	PetID    *string
	Services *[]domain.ServiceType
	From     *time.Time
	To       *time.Time
}

// IsEmpty reports whether the update carries no field.
func (u AppointmentUpdate) IsEmpty() bool {
	return u.PetID == nil && u.Services == nil && u.From == nil && u.To == nil
}

// AppointmentStore is the persistence collaborator owning appointments.
type AppointmentStore interface {
	Create(ctx context.Context, appt *domain.Appointment) (*projection.Projection[*domain.Appointment], error)
	Update(ctx context.Context, id string, fields AppointmentUpdate) (*projection.Projection[*domain.Appointment], error)
	SetStatus(ctx context.Context, id string, status domain.Status) (*projection.Projection[*domain.Appointment], error)
	Get(ctx context.Context, id string) (*projection.Projection[*domain.Appointment], error)
	ListForUser(ctx context.Context, userID string) ([]*projection.Projection[*domain.Appointment], error)
	List(ctx context.Context, filter AppointmentFilter) ([]*projection.Projection[*domain.Appointment], error)
}

// OverlapFinder is implemented by stores that can see every user's bookings.
// The service uses it to reject a slot already held by someone else.
type OverlapFinder interface {
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]*projection.Projection[*domain.Appointment], error)
}
