package transactions

import (
	"context"
	"fmt"
)

// Statistics returns the sale totals for the requested month.
func (s *Service) Statistics(ctx context.Context, filter PeriodFilter) (Statistics, error) {
	period, err := ResolvePeriod(filter.Month, filter.Year)
	if err != nil {
		return Statistics{}, err
	}
	return s.statistics(ctx, period)
}

// Histogram returns per-range record counts in configured range order.
func (s *Service) Histogram(ctx context.Context, filter PeriodFilter) ([]HistogramBucket, error) {
	period, err := ResolvePeriod(filter.Month, filter.Year)
	if err != nil {
		return nil, err
	}
	return s.histogram(ctx, period)
}

// Categories returns the record count of every category sold in the month.
func (s *Service) Categories(ctx context.Context, filter PeriodFilter) ([]CategoryCount, error) {
	period, err := ResolvePeriod(filter.Month, filter.Year)
	if err != nil {
		return nil, err
	}
	return s.categories(ctx, period)
}

func (s *Service) statistics(ctx context.Context, period Period) (Statistics, error) {
	return cached(ctx, s, keyStatistics(period), func(ctx context.Context) (Statistics, error) {
		stats, err := s.repo.Statistics(ctx, period)
		if err != nil {
			return Statistics{}, fmt.Errorf("statistics %s: %w", period, err)
		}
		return stats, nil
	})
}

func (s *Service) histogram(ctx context.Context, period Period) ([]HistogramBucket, error) {
	ranges := s.ranges
	return cached(ctx, s, keyHistogram(period, ranges), func(ctx context.Context) ([]HistogramBucket, error) {
		counts, err := s.repo.PriceHistogram(ctx, period, ranges)
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", period, err)
		}
		if len(counts) != len(ranges) {
			return nil, fmt.Errorf("histogram %s: %w: got %d counts for %d ranges", period, ErrQueryFailed, len(counts), len(ranges))
		}
		buckets := make([]HistogramBucket, 0, len(ranges))
		for i, r := range ranges {
			buckets = append(buckets, HistogramBucket{Range: r.Label, Count: counts[i]})
		}
		return buckets, nil
	})
}

func (s *Service) categories(ctx context.Context, period Period) ([]CategoryCount, error) {
	return cached(ctx, s, keyCategories(period), func(ctx context.Context) ([]CategoryCount, error) {
		counts, err := s.repo.CategoryCounts(ctx, period)
		if err != nil {
			return nil, fmt.Errorf("categories %s: %w", period, err)
		}
		if counts == nil {
			counts = []CategoryCount{}
		}
		return counts, nil
	})
}
