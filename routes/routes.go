package routes

import (
	"net/http"
	"time"

	"pointbreak/handlers"
	"pointbreak/middleware"
	"pointbreak/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterFlightRoutes registers the comparison endpoint.
func RegisterFlightRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/flights", hb.SearchFlightsHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for operator access.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/token", hb.AdminTokenHandler)

		protected := adminGroup.Group("")
		protected.Use(middleware.JWTAuthAdminMiddleware())
		protected.GET("/pool", hb.PoolStatusHandler)
		protected.GET("/history", hb.HistoryHandler)
	}
}

// RegisterHealthRoutes registers liveness and readiness probes. Readiness
// reflects pool health: the service can only answer comparisons while at
// least one session is serving or warming.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		pool := hb.PoolSnapshot()
		status := http.StatusOK
		if !pool.Healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"pool":         pool,
			"dependencies": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterFlightRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoutes(r, hb)
}
