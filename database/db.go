package database

import (
	"context"
	"time"

	"pointbreak/config"
	"pointbreak/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoClient is the shared MongoDB client instance.
var MongoClient *mongo.Client

// InitDB connects the search-history store and verifies it is reachable.
func InitDB() {
	logger := utils.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.DatabaseURL))
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Sugar().Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	logger.Info("search-history store connected",
		zap.String("database", config.AppConfig.DatabaseName))
}
