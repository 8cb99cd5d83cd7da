package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pointbreak/models"
	"pointbreak/services/tasks"
	"pointbreak/utils"

	"go.uber.org/zap"
)

// Compare fetches award and cash offers for the itinerary concurrently,
// joins them by identity hash and derives CPP per matched flight. An empty
// flight list is a valid result.
func (s *DefaultFlightSearchService) Compare(ctx context.Context, req models.SearchRequest) (*models.FlightsResult, error) {
	req.Origin = strings.ToUpper(req.Origin)
	req.Destination = strings.ToUpper(req.Destination)
	req.CabinClass = strings.ToUpper(req.CabinClass)

	if req.Passengers < 1 {
		return nil, NewValidationError("passengers", "number of passengers must be at least 1")
	}
	if !models.SupportedCabin(req.CabinClass) {
		return nil, fmt.Errorf("%w: %s (supported: %s, %s)",
			ErrUnsupportedCabinClass, req.CabinClass, models.CabinMain, models.CabinPremiumEconomy)
	}

	cacheKey := s.cacheKey(req)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	// Award and cash searches run concurrently on separate leased sessions.
	type dispatchResult struct {
		offers []models.RawOffer
		err    error
	}
	awardCh := make(chan dispatchResult, 1)
	cashCh := make(chan dispatchResult, 1)
	go func() {
		offers, err := s.Dispatcher.Execute(ctx, req, models.SearchTypeAward)
		awardCh <- dispatchResult{offers: offers, err: err}
	}()
	go func() {
		offers, err := s.Dispatcher.Execute(ctx, req, models.SearchTypeRevenue)
		cashCh <- dispatchResult{offers: offers, err: err}
	}()
	award := <-awardCh
	cash := <-cashCh

	if award.err != nil {
		return nil, fmt.Errorf("award search failed: %w", award.err)
	}
	if cash.err != nil {
		return nil, fmt.Errorf("cash search failed: %w", cash.err)
	}

	matched := MatchOffers(award.offers, cash.offers, req.Passengers, req.CabinClass)
	result := &models.FlightsResult{
		SearchMetadata: models.SearchMetadata{
			Origin:      req.Origin,
			Destination: req.Destination,
			Date:        req.Date,
			Passengers:  req.Passengers,
			CabinClass:  req.CabinClass,
		},
		Flights:      matched,
		TotalResults: len(matched),
	}

	s.toCache(ctx, cacheKey, result)
	s.recordHistory(req, result)
	return result, nil
}

func (s *DefaultFlightSearchService) cacheKey(req models.SearchRequest) string {
	return fmt.Sprintf("%s%s:%s:%s:%d:%s",
		utils.FlightsCachePrefix, req.Origin, req.Destination, req.Date, req.Passengers, req.CabinClass)
}

func (s *DefaultFlightSearchService) fromCache(ctx context.Context, key string) *models.FlightsResult {
	if s.CacheClient == nil {
		return nil
	}
	data, err := s.CacheClient.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var result models.FlightsResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	s.Logger.Debug("comparison served from cache", zap.String("key", key))
	return &result
}

func (s *DefaultFlightSearchService) toCache(ctx context.Context, key string, result *models.FlightsResult) {
	if s.CacheClient == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.CacheClient.Set(ctx, key, data, ttl).Err(); err != nil {
		s.Logger.Warn("failed to cache comparison result", zap.Error(err))
	}
}

// recordHistory persists the comparison off the request path; failures are
// logged and otherwise ignored. With a task queue attached the record is
// enqueued for the background worker, which retries transient store
// failures; without one it is written directly.
func (s *DefaultFlightSearchService) recordHistory(req models.SearchRequest, result *models.FlightsResult) {
	record := models.SearchRecord{
		Origin:       req.Origin,
		Destination:  req.Destination,
		Date:         req.Date,
		Passengers:   req.Passengers,
		CabinClass:   req.CabinClass,
		TotalResults: result.TotalResults,
		SearchedAt:   time.Now(),
	}
	for _, flight := range result.Flights {
		if flight.CPP > record.BestCPP {
			record.BestCPP = flight.CPP
		}
	}

	if s.Tasks != nil {
		task, err := tasks.NewHistoryRecordTask(record)
		if err != nil {
			s.Logger.Warn("failed to build search record task", zap.Error(err))
			return
		}
		if _, err := s.Tasks.Enqueue(task); err != nil {
			s.Logger.Warn("failed to enqueue search record", zap.Error(err))
		}
		return
	}

	if s.History == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.History.Create(ctx, record); err != nil {
			s.Logger.Warn("failed to record search history", zap.Error(err))
		}
	}()
}
