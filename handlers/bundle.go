package handlers

import (
	"pointbreak/models"

	"github.com/gin-gonic/gin"
)

// HandlerBundle assembles every endpoint handler for route registration.
type HandlerBundle struct {
	// Comparison endpoint.
	SearchFlightsHandler gin.HandlerFunc

	// Admin endpoints.
	AdminTokenHandler gin.HandlerFunc
	PoolStatusHandler gin.HandlerFunc
	HistoryHandler    gin.HandlerFunc

	// PoolSnapshot feeds the readiness probe.
	PoolSnapshot func() models.PoolSnapshot
}
