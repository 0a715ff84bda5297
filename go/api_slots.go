package clinicserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	schedhttpmapper "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/http/mapper"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// SlotAPI serves the date and slot pickers of the booking flow.
type SlotAPI struct {
	service schedports.Service
}

// NewSlotAPI creates a SlotAPI backed by the provided service.
func NewSlotAPI(service schedports.Service) SlotAPI {
	return SlotAPI{service: service}
}

// Get /v1/appointments/available-dates
// List days with at least one free slot inside the booking window
func (api *SlotAPI) AvailableDates(c *gin.Context) {
	var input schedtypes.AvailableDatesInput
	if raw := strings.TrimSpace(c.Query("windowDays")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		input.WindowDays = &days
	}
	dates, err := api.service.AvailableDates(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromDates(dates))
}

// Get /v1/appointments/available-slots
// List free slots on one day
func (api *SlotAPI) AvailableSlots(c *gin.Context) {
	date, err := domain.ParseLocalDate(strings.TrimSpace(c.Query("date")))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	slots, err := api.service.SlotsForDate(c.Request.Context(), schedtypes.SlotsForDateInput{Date: date})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedhttpmapper.FromSlots(slots))
}
