package historyRepo

import (
	"context"
	"time"

	"pointbreak/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a completed comparison record and returns its ID.
func (r *mongoHistoryRepo) Create(ctx context.Context, record models.SearchRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SearchedAt.IsZero() {
		record.SearchedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// Recent returns the most recent comparison records, newest first.
func (r *mongoHistoryRepo) Recent(ctx context.Context, limit int64) ([]models.SearchRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "searchedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.SearchRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
