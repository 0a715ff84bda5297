package ports

import (
	"context"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

// Service defines the scheduling use cases exposed to adapters (inbound/driving port).
type Service interface {
	AvailableDates(ctx context.Context, input schedtypes.AvailableDatesInput) ([]domain.LocalDate, error)
	SlotsForDate(ctx context.Context, input schedtypes.SlotsForDateInput) ([]domain.TimeSlot, error)
	CreateAppointment(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error)
	EditAppointment(ctx context.Context, input schedtypes.EditAppointmentInput) (*schedtypes.AppointmentProjection, error)
	CancelAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error)
	UpdateStatus(ctx context.Context, input schedtypes.UpdateStatusInput) (*schedtypes.AppointmentProjection, error)
	GetAppointment(ctx context.Context, input schedtypes.AppointmentIdentifier) (*schedtypes.AppointmentProjection, error)
	ListAppointments(ctx context.Context, input schedtypes.ListAppointmentsInput) ([]*schedtypes.AppointmentProjection, error)
	ListAllAppointments(ctx context.Context, input schedtypes.ListAllAppointmentsInput) ([]*schedtypes.AppointmentProjection, error)
}
