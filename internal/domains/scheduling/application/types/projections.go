package types

import (
	"sort"
	"time"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/shared/projection"
)

// AppointmentProjection transports an appointment together with its persistence metadata.
type AppointmentProjection = projection.Projection[*domain.Appointment]

// NewAppointmentProjection wraps an aggregate with persistence metadata.
func NewAppointmentProjection(appt *domain.Appointment, createdAt, updatedAt time.Time) *AppointmentProjection {
	if appt == nil {
		return nil
	}
	return projection.New(appt, createdAt, updatedAt)
}

// SortByStart orders projections by appointment start, oldest first.
func SortByStart(list []*AppointmentProjection) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Entity.From.Before(list[j].Entity.From)
	})
}
