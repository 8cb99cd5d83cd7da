package utils

import (
	"testing"
	"time"

	"pointbreak/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartHealthMonitor_ProbesImmediately(t *testing.T) {
	// A redis client pointing at a closed port fails the probe fast.
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer redisClient.Close()

	StartHealthMonitor(redisClient, nil, func() models.PoolSnapshot {
		return models.PoolSnapshot{Healthy: true}
	})

	// The first check runs at startup, not after the first tick.
	require.Eventually(t, func() bool {
		return !GetHealthStatus().CheckedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond, "status should be populated well before the first tick")

	status := GetHealthStatus()
	assert.False(t, status.Redis)
	assert.False(t, status.Mongo)
	assert.True(t, status.Pool.Healthy)
}
