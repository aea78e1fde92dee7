package transactions

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCombinedTimeout bounds a coalesced combined computation.
const DefaultCombinedTimeout = 30 * time.Second

// Combined resolves the period once and computes statistics, the price
// histogram and the category distribution concurrently. Any failing section
// fails the whole call with an *AggregationError.
//
// Identical concurrent calls share one computation. It runs detached from the
// caller that started it, so a caller that goes away only abandons its own
// wait and never fails the others.
func (s *Service) Combined(ctx context.Context, filter PeriodFilter) (Combined, error) {
	period, err := ResolvePeriod(filter.Month, filter.Year)
	if err != nil {
		return Combined{}, err
	}

	resultCh := s.flight.DoChan("combined:"+periodToken(period), func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.combinedTimeout)
		defer cancel()
		return s.combine(flightCtx, period)
	})
	select {
	case <-ctx.Done():
		return Combined{}, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return Combined{}, res.Err
		}
		return res.Val.(Combined), nil
	}
}

func (s *Service) combine(ctx context.Context, period Period) (Combined, error) {
	result := Combined{Period: period}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.statistics(gctx, period)
		if err != nil {
			return &AggregationError{Section: SectionStatistics, Period: period, Err: err}
		}
		result.Statistics = stats
		return nil
	})

	g.Go(func() error {
		buckets, err := s.histogram(gctx, period)
		if err != nil {
			return &AggregationError{Section: SectionBarChart, Period: period, Err: err}
		}
		result.BarChart = buckets
		return nil
	})

	g.Go(func() error {
		counts, err := s.categories(gctx, period)
		if err != nil {
			return &AggregationError{Section: SectionPieChart, Period: period, Err: err}
		}
		result.PieChart = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return Combined{}, err
	}
	return result, nil
}
