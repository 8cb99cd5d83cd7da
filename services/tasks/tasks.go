// Package tasks defines the background jobs this service runs off the
// request path. Jobs are queued on the shared redis and consumed by an
// asynq worker started alongside the HTTP server.
package tasks

import (
	"encoding/json"

	"pointbreak/config"
	"pointbreak/models"

	"github.com/hibiken/asynq"
)

// TypeHistoryRecord persists one completed comparison to the search
// history store.
const TypeHistoryRecord = "history:record"

// NewHistoryRecordTask wraps a search record as a queueable task.
func NewHistoryRecordTask(record models.SearchRecord) (*asynq.Task, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeHistoryRecord, payload, asynq.MaxRetry(3)), nil
}

// RedisOpt is the queue's redis connection, kept on its own DB so queue
// keys never collide with the comparison cache.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTasksDB,
	}
}

// NewServer builds the worker that consumes background tasks.
func NewServer() *asynq.Server {
	return asynq.NewServer(RedisOpt(), asynq.Config{
		Concurrency: 2,
	})
}
