package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Upstream session pool tuning.
	PoolSize          int           `mapstructure:"POOL_SIZE"`
	RotationThreshold int           `mapstructure:"ROTATION_THRESHOLD"`
	LeaseWaitTimeout  time.Duration `mapstructure:"LEASE_WAIT_TIMEOUT"`
	DispatchTimeout   time.Duration `mapstructure:"DISPATCH_TIMEOUT"`
	HydrationRetries  int           `mapstructure:"HYDRATION_RETRIES"`
	HydrationBackoff  time.Duration `mapstructure:"HYDRATION_BACKOFF"`

	// Comparison result cache.
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTasksDB  int    `mapstructure:"REDIS_TASKS_DB"`

	// Mongo (search history).
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Admin surface.
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	AdminAPIKeyHash string `mapstructure:"ADMIN_API_KEY_HASH"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("POOL_SIZE", 2)
	viper.SetDefault("ROTATION_THRESHOLD", 75)
	viper.SetDefault("LEASE_WAIT_TIMEOUT", "45s")
	viper.SetDefault("DISPATCH_TIMEOUT", "30s")
	viper.SetDefault("HYDRATION_RETRIES", 3)
	viper.SetDefault("HYDRATION_BACKOFF", "2s")
	viper.SetDefault("CACHE_TTL", "5m")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_TASKS_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "pointbreak")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_API_KEY_HASH", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
