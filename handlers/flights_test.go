package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pointbreak/models"
	"pointbreak/services/dispatch"
	"pointbreak/services/flights"
	"pointbreak/services/sessionpool"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFlightService struct {
	lastReq models.SearchRequest
	result  *models.FlightsResult
	err     error
}

func (s *fakeFlightService) Compare(ctx context.Context, req models.SearchRequest) (*models.FlightsResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newFlightRouter(svc flights.FlightSearchService) *gin.Engine {
	router := gin.New()
	handler := NewFlightHandler(svc, zap.NewNop())
	router.GET("/api/flights", handler.SearchFlightsHandler)
	return router
}

func doSearch(router *gin.Engine, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/flights?"+query, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSearchFlightsHandler_Success(t *testing.T) {
	svc := &fakeFlightService{
		result: &models.FlightsResult{
			SearchMetadata: models.SearchMetadata{
				Origin:      "JFK",
				Destination: "LAX",
				Date:        "2026-09-01",
				Passengers:  2,
				CabinClass:  models.CabinMain,
			},
			Flights: []models.MatchedFlight{
				{FlightNumber: "AA123", PointsRequired: 25000, CashPriceUSD: 578, TaxesFeesUSD: 11.20, CPP: 2.27},
			},
			TotalResults: 1,
		},
	}
	router := newFlightRouter(svc)

	w := doSearch(router, "origin=jfk&destination=lax&date=2026-09-01&passengers=2")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.FlightsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalResults)
	assert.Equal(t, "AA123", body.Flights[0].FlightNumber)

	// Query params were normalized before reaching the service.
	assert.Equal(t, "JFK", svc.lastReq.Origin)
	assert.Equal(t, "LAX", svc.lastReq.Destination)
	assert.Equal(t, 2, svc.lastReq.Passengers)
	assert.Equal(t, models.CabinMain, svc.lastReq.CabinClass, "cabin class defaults to MAIN")
}

func TestSearchFlightsHandler_CabinClassNormalized(t *testing.T) {
	svc := &fakeFlightService{result: &models.FlightsResult{}}
	router := newFlightRouter(svc)

	w := doSearch(router, "origin=JFK&destination=LAX&date=2026-09-01&cabin_class=premium_economy")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CabinPremiumEconomy, svc.lastReq.CabinClass)
}

func TestSearchFlightsHandler_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing origin", query: "destination=LAX&date=2026-09-01"},
		{name: "origin too long", query: "origin=JFKX&destination=LAX&date=2026-09-01"},
		{name: "numeric origin", query: "origin=123&destination=LAX&date=2026-09-01"},
		{name: "missing destination", query: "origin=JFK&date=2026-09-01"},
		{name: "bad date format", query: "origin=JFK&destination=LAX&date=09-01-2026"},
		{name: "missing date", query: "origin=JFK&destination=LAX"},
		{name: "zero passengers", query: "origin=JFK&destination=LAX&date=2026-09-01&passengers=0"},
		{name: "too many passengers", query: "origin=JFK&destination=LAX&date=2026-09-01&passengers=10"},
		{name: "non-numeric passengers", query: "origin=JFK&destination=LAX&date=2026-09-01&passengers=two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeFlightService{result: &models.FlightsResult{}}
			router := newFlightRouter(svc)

			w := doSearch(router, tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.lastReq.Origin, "invalid input must not reach the service")
		})
	}
}

func TestSearchFlightsHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "unsupported cabin", serviceErr: flights.ErrUnsupportedCabinClass, wantStatus: http.StatusBadRequest},
		{name: "validation error", serviceErr: flights.NewValidationError("passengers", "must be positive"), wantStatus: http.StatusBadRequest},
		{name: "upstream timeout", serviceErr: dispatch.ErrUpstreamTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "upstream unavailable", serviceErr: dispatch.ErrUpstreamUnavailable, wantStatus: http.StatusBadGateway},
		{name: "pool exhausted", serviceErr: sessionpool.ErrPoolExhausted, wantStatus: http.StatusBadGateway},
		{name: "pool closed", serviceErr: sessionpool.ErrPoolClosed, wantStatus: http.StatusBadGateway},
		{name: "unknown failure", serviceErr: context.Canceled, wantStatus: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeFlightService{err: tt.serviceErr}
			router := newFlightRouter(svc)

			w := doSearch(router, "origin=JFK&destination=LAX&date=2026-09-01")
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}
