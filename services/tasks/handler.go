package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	historyRepo "pointbreak/database/repository/history"
	"pointbreak/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handler consumes queued background tasks.
type Handler struct {
	History historyRepo.SearchHistoryRepository
	Logger  *zap.Logger
}

// HandleHistoryRecord persists one search record. A payload that cannot be
// decoded is dropped rather than retried.
func (h *Handler) HandleHistoryRecord(ctx context.Context, t *asynq.Task) error {
	var record models.SearchRecord
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		return fmt.Errorf("malformed search record payload: %v: %w", err, asynq.SkipRetry)
	}
	if _, err := h.History.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to persist search record: %w", err)
	}
	h.Logger.Debug("search record persisted",
		zap.String("origin", record.Origin),
		zap.String("destination", record.Destination))
	return nil
}

// NewMux routes task types to their handlers.
func (h *Handler) NewMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHistoryRecord, h.HandleHistoryRecord)
	return mux
}
