package historyRepo

import (
	"context"

	"pointbreak/config"
	"pointbreak/database"
	"pointbreak/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type SearchHistoryRepository interface {
	Create(ctx context.Context, record models.SearchRecord) (string, error)
	Recent(ctx context.Context, limit int64) ([]models.SearchRecord, error)
}

type mongoHistoryRepo struct {
	coll *mongo.Collection
}

// NewMongoHistoryRepo returns a new SearchHistoryRepository instance using MongoDB.
func NewMongoHistoryRepo() SearchHistoryRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &mongoHistoryRepo{
		coll: db.Collection("search_history"),
	}
}
