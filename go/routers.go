package clinicserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the API handlers mounted by NewRouter.
type ApiHandleFunctions struct {
	AppointmentAPI AppointmentAPI
	SlotAPI        SlotAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"AvailableDates",
			http.MethodGet,
			"/v1/appointments/available-dates",
			handleFunctions.SlotAPI.AvailableDates,
		},
		{
			"AvailableSlots",
			http.MethodGet,
			"/v1/appointments/available-slots",
			handleFunctions.SlotAPI.AvailableSlots,
		},
		{
			"CreateAppointment",
			http.MethodPost,
			"/v1/appointments",
			handleFunctions.AppointmentAPI.CreateAppointment,
		},
		{
			"ListAppointments",
			http.MethodGet,
			"/v1/appointments",
			handleFunctions.AppointmentAPI.ListAppointments,
		},
		{
			"GetAppointment",
			http.MethodGet,
			"/v1/appointments/:appointmentId",
			handleFunctions.AppointmentAPI.GetAppointment,
		},
		{
			"EditAppointment",
			http.MethodPut,
			"/v1/appointments/:appointmentId",
			handleFunctions.AppointmentAPI.EditAppointment,
		},
		{
			"CancelAppointment",
			http.MethodPut,
			"/v1/appointments/:appointmentId/cancel",
			handleFunctions.AppointmentAPI.CancelAppointment,
		},
		{
			"ListClinicAppointments",
			http.MethodGet,
			"/v1/clinic/appointments",
			handleFunctions.AppointmentAPI.ListClinicAppointments,
		},
		{
			"UpdateAppointmentStatus",
			http.MethodPut,
			"/v1/appointments/:appointmentId/status",
			handleFunctions.AppointmentAPI.UpdateStatus,
		},
	}
}
