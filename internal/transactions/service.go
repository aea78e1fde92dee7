package transactions

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Repository exposes the read queries the dashboard relies on.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Transaction, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Statistics(ctx context.Context, period Period) (Statistics, error)
	PriceHistogram(ctx context.Context, period Period, ranges []PriceRange) ([]int64, error)
	CategoryCounts(ctx context.Context, period Period) ([]CategoryCount, error)
}

// Service coordinates query execution with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	ranges []PriceRange
	logger *slog.Logger
	flight singleflight.Group

	combinedTimeout time.Duration
}

// NewService wires a Repository with a Cache helper and the histogram buckets.
// Nil ranges fall back to DefaultPriceRanges.
func NewService(repo Repository, cache *Cache, ranges []PriceRange) *Service {
	if len(ranges) == 0 {
		ranges = DefaultPriceRanges()
	}
	return &Service{
		repo:            repo,
		cache:           cache,
		ranges:          ranges,
		logger:          slog.Default(),
		combinedTimeout: DefaultCombinedTimeout,
	}
}

// WithLogger overrides the logger used for cache degradation warnings.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithCombinedTimeout bounds shared combined computations. Non-positive values
// keep the current bound.
func (s *Service) WithCombinedTimeout(d time.Duration) *Service {
	if d > 0 {
		s.combinedTimeout = d
	}
	return s
}

// PriceRanges returns the configured histogram buckets.
func (s *Service) PriceRanges() []PriceRange {
	out := make([]PriceRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// InvalidateCache drops every cached aggregation.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// cached serves load through the cache. Cache failures degrade to a direct
// load; loader failures are returned unchanged.
func cached[T any](ctx context.Context, s *Service, keyBase string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		s.logger.Warn("cache key unavailable", slog.String("key", keyBase), slog.Any("error", err))
		return load(ctx)
	}

	var (
		loaded  T
		didLoad bool
		loadErr error
	)
	loader := func(ctx context.Context) (interface{}, error) {
		loaded, loadErr = load(ctx)
		didLoad = true
		return loaded, loadErr
	}
	var out T
	if err := s.cache.FetchJSON(ctx, key, &out, loader); err != nil {
		if loadErr != nil {
			var zero T
			return zero, loadErr
		}
		s.logger.Warn("cache fetch degraded", slog.String("key", key), slog.Any("error", err))
		if didLoad {
			return loaded, nil
		}
		return load(ctx)
	}
	return out, nil
}
