// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"pointbreak/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient caches completed comparison results so repeated searches
// within the TTL never touch the upstream.
var CacheClient *redis.Client

// InitCache initializes the Redis comparison cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the comparison cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
