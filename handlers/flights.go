package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"pointbreak/models"
	"pointbreak/services/dispatch"
	"pointbreak/services/flights"
	"pointbreak/services/sessionpool"
	"pointbreak/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	iataPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// FlightHandler serves the comparison endpoint.
type FlightHandler struct {
	Service flights.FlightSearchService
	Logger  *zap.Logger
}

func NewFlightHandler(service flights.FlightSearchService, logger *zap.Logger) *FlightHandler {
	return &FlightHandler{Service: service, Logger: logger}
}

// SearchFlightsHandler handles GET /api/flights.
func (h *FlightHandler) SearchFlightsHandler(c *gin.Context) {
	origin := c.Query("origin")
	if !iataPattern.MatchString(origin) {
		utils.JSONError(c, http.StatusBadRequest, "invalid search", "origin must be a 3-letter IATA code")
		return
	}
	destination := c.Query("destination")
	if !iataPattern.MatchString(destination) {
		utils.JSONError(c, http.StatusBadRequest, "invalid search", "destination must be a 3-letter IATA code")
		return
	}
	date := c.Query("date")
	if !datePattern.MatchString(date) {
		utils.JSONError(c, http.StatusBadRequest, "invalid search", "date must be in YYYY-MM-DD format")
		return
	}
	passengers, err := strconv.Atoi(c.DefaultQuery("passengers", "1"))
	if err != nil || passengers < 1 || passengers > 9 {
		utils.JSONError(c, http.StatusBadRequest, "invalid search", "passengers must be between 1 and 9")
		return
	}
	cabinClass := strings.ToUpper(c.DefaultQuery("cabin_class", models.CabinMain))

	req := models.SearchRequest{
		Origin:      strings.ToUpper(origin),
		Destination: strings.ToUpper(destination),
		Date:        date,
		Passengers:  passengers,
		CabinClass:  cabinClass,
	}

	result, err := h.Service.Compare(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps service errors onto HTTP statuses: validation problems
// are client errors; everything upstream-shaped is an upstream failure.
func (h *FlightHandler) respondError(c *gin.Context, err error) {
	var validationErr *flights.ValidationError
	switch {
	case errors.Is(err, flights.ErrUnsupportedCabinClass), errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "invalid search", err.Error())
	case errors.Is(err, dispatch.ErrUpstreamTimeout):
		utils.JSONError(c, http.StatusGatewayTimeout, "upstream search timed out", err.Error())
	case errors.Is(err, sessionpool.ErrPoolExhausted),
		errors.Is(err, sessionpool.ErrPoolClosed),
		errors.Is(err, dispatch.ErrUpstreamUnavailable):
		utils.JSONError(c, http.StatusBadGateway, "upstream unavailable", err.Error())
	default:
		h.Logger.Error("comparison failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "upstream unavailable", err.Error())
	}
}
