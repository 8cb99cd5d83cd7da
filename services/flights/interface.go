package flights

import (
	"context"
	"time"

	historyRepo "pointbreak/database/repository/history"
	"pointbreak/models"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// FlightSearchService is the sole entry point the API surface calls.
type FlightSearchService interface {
	Compare(ctx context.Context, req models.SearchRequest) (*models.FlightsResult, error)
}

// OfferDispatcher runs one upstream search of a given type.
type OfferDispatcher interface {
	Execute(ctx context.Context, req models.SearchRequest, searchType string) ([]models.RawOffer, error)
}

// TaskEnqueuer queues background work; satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DefaultFlightSearchService implements FlightSearchService.
type DefaultFlightSearchService struct {
	Dispatcher  OfferDispatcher
	CacheClient *redis.Client
	CacheTTL    time.Duration
	Tasks       TaskEnqueuer
	History     historyRepo.SearchHistoryRepository
	Logger      *zap.Logger
}
