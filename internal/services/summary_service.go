package services

import (
	"context"
	"time"

	"healthtrends/internal/aggregate"
	"healthtrends/internal/cache"
	"healthtrends/internal/logging"
	"healthtrends/internal/metrics"
	"healthtrends/internal/repository"
)

// Data domains served by the summary endpoints.
const (
	DomainActivity = "activity"
	DomainWorkout  = "workout"
)

// SummaryService answers current and trend queries over stored rows.
type SummaryService struct {
	data  repository.HealthDataRepository
	cache SummaryCache
	ttl   time.Duration
}

// NewSummaryService builds the service. cache may be nil.
func NewSummaryService(data repository.HealthDataRepository, cache SummaryCache, ttl time.Duration) *SummaryService {
	return &SummaryService{data: data, cache: cache, ttl: ttl}
}

func (s *SummaryService) ActivitySummary(ctx context.Context, userID uint, q aggregate.Query) (*aggregate.Summary, error) {
	return summarize(ctx, s, DomainActivity, userID, q, s.data.ReadActivitySummaries, aggregate.ActivityMeasures)
}

func (s *SummaryService) WorkoutSummary(ctx context.Context, userID uint, q aggregate.Query) (*aggregate.Summary, error) {
	return summarize(ctx, s, DomainWorkout, userID, q, s.data.ReadWorkouts, aggregate.WorkoutMeasures)
}

func summarize[T any](
	ctx context.Context,
	s *SummaryService,
	domain string,
	userID uint,
	q aggregate.Query,
	read func(context.Context, uint) ([]T, error),
	set aggregate.MeasureSet[T],
) (*aggregate.Summary, error) {
	key := cache.SummaryKey{Domain: domain, UserID: userID, Query: q}

	// The generation is pinned before rows are read so a concurrent
	// ingestion cannot have its invalidation overwritten.
	useCache := s.cache != nil
	if useCache {
		gen, err := s.cache.Generation(ctx, userID)
		if err != nil {
			logging.Warn().Err(err).Str("key", key.String()).Msg("Summary cache generation read failed")
			useCache = false
		}
		key.Generation = gen
	}

	if useCache {
		cached, ok, err := s.cache.GetSummary(ctx, key)
		if err != nil {
			logging.Warn().Err(err).Str("key", key.String()).Msg("Summary cache read failed")
		} else if ok {
			metrics.RecordSummary(domain, true)
			return cached, nil
		}
	}
	metrics.RecordSummary(domain, false)

	rows, err := read(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := q.Apply(set.Series(rows))
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.SetSummary(ctx, key, summary, s.ttl); err != nil {
			logging.Warn().Err(err).Str("key", key.String()).Msg("Summary cache write failed")
		}
	}
	return &summary, nil
}
