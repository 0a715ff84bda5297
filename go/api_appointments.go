package clinicserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	schedhttpmapper "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/http/mapper"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
	apierrors "github.com/Apurer/petclinic-scheduling/internal/shared/errors"
)

const (
	// HeaderUserID carries the authenticated clinic user, set by the gateway in front of the API.
	HeaderUserID = "X-User-ID"
	// HeaderIdempotencyKey lets clients retry bookings safely.
	HeaderIdempotencyKey = "Idempotency-Key"
)

var errMissingUser = errors.New("missing " + HeaderUserID + " header")

// AppointmentAPI wires HTTP transport with the scheduling service and booking workflows.
type AppointmentAPI struct {
	service   schedports.Service
	workflows schedports.WorkflowOrchestrator
}

// NewAppointmentAPI creates an AppointmentAPI. A nil orchestrator books through the service directly.
func NewAppointmentAPI(service schedports.Service, workflows schedports.WorkflowOrchestrator) AppointmentAPI {
	return AppointmentAPI{service: service, workflows: workflows}
}

// Post /v1/appointments
// Book an appointment in an available slot
func (api *AppointmentAPI) CreateAppointment(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var payload schedhttpmapper.AppointmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input, err := schedhttpmapper.ToCreateInput(session, c.GetHeader(HeaderIdempotencyKey), payload)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	created, err := api.book(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedhttpmapper.FromProjection(created))
}

func (api *AppointmentAPI) book(ctx context.Context, input schedtypes.CreateAppointmentInput) (*schedtypes.AppointmentProjection, error) {
	if api.workflows != nil {
		return api.workflows.BookAppointment(ctx, input)
	}
	return api.service.CreateAppointment(ctx, input)
}

// Get /v1/appointments
// List the caller's appointments
func (api *AppointmentAPI) ListAppointments(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	result, err := api.service.ListAppointments(c.Request.Context(), schedtypes.ListAppointmentsInput{Session: session})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjectionList(result))
}

// Get /v1/appointments/:appointmentId
// Find appointment by ID
func (api *AppointmentAPI) GetAppointment(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	input := schedtypes.AppointmentIdentifier{Session: session, ID: c.Param("appointmentId")}
	appt, err := api.service.GetAppointment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjection(appt))
}

// Put /v1/appointments/:appointmentId
// Change the pet, services, or slot of an appointment
func (api *AppointmentAPI) EditAppointment(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var payload schedhttpmapper.AppointmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input := schedhttpmapper.ToEditInput(session, c.Param("appointmentId"), payload)
	updated, err := api.service.EditAppointment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjection(updated))
}

// Put /v1/appointments/:appointmentId/cancel
// Cancel an appointment
func (api *AppointmentAPI) CancelAppointment(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	input := schedtypes.AppointmentIdentifier{Session: session, ID: c.Param("appointmentId")}
	cancelled, err := api.service.CancelAppointment(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjection(cancelled))
}

// Put /v1/appointments/:appointmentId/status
// Move an appointment along its lifecycle (clinic staff)
func (api *AppointmentAPI) UpdateStatus(c *gin.Context) {
	var payload schedhttpmapper.StatusUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input := schedtypes.UpdateStatusInput{ID: c.Param("appointmentId"), Status: payload.Status}
	updated, err := api.service.UpdateStatus(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjection(updated))
}

// Get /v1/clinic/appointments
// List every user's appointments, optionally by status and day (clinic staff)
func (api *AppointmentAPI) ListClinicAppointments(c *gin.Context) {
	input := schedtypes.ListAllAppointmentsInput{Status: strings.TrimSpace(c.Query("status"))}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date, err := domain.ParseLocalDate(raw)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		input.Date = date
	}
	result, err := api.service.ListAllAppointments(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromProjectionList(result))
}

func sessionFrom(c *gin.Context) domain.Session {
	return domain.Session{UserID: strings.TrimSpace(c.GetHeader(HeaderUserID))}
}

func requireSession(c *gin.Context) (domain.Session, bool) {
	session := sessionFrom(c)
	if session.UserID == "" {
		responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(errMissingUser.Error()))
		return domain.Session{}, false
	}
	return session, true
}
