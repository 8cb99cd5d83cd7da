package utils

import (
	"context"
	"sync"
	"time"

	"pointbreak/models"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services and the
// upstream session pool.
type HealthStatus struct {
	Mongo     bool                `json:"mongo"`
	Redis     bool                `json:"redis"`
	Pool      models.PoolSnapshot `json:"pool"`
	CheckedAt time.Time           `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor performs periodic health checks and updates in-memory
// state, probing once immediately so /ready is accurate from boot.
// poolSnapshot is injected so the monitor stays decoupled from the pool package.
func StartHealthMonitor(redisClient *redis.Client, mongoClient *mongo.Client, poolSnapshot func() models.PoolSnapshot) {
	probe := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisHealthy := redisClient != nil && redisClient.Ping(ctx).Err() == nil
		mongoHealthy := mongoClient != nil && mongoClient.Ping(ctx, nil) == nil

		healthMu.Lock()
		currentHealth = HealthStatus{
			Mongo:     mongoHealthy,
			Redis:     redisHealthy,
			Pool:      poolSnapshot(),
			CheckedAt: time.Now(),
		}
		healthMu.Unlock()
	}

	go func() {
		probe()
		ticker := time.NewTicker(HealthCheckInterval)
		defer ticker.Stop()
		for range ticker.C {
			probe()
		}
	}()
}
