package transactions

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMonth is returned when a month designator cannot be resolved.
	ErrInvalidMonth = errors.New("transactions: invalid month")
	// ErrInvalidPage is returned for non-positive page or page size values.
	ErrInvalidPage = errors.New("transactions: invalid page")
	// ErrInvalidPriceRanges flags a price range configuration that cannot be used.
	ErrInvalidPriceRanges = errors.New("transactions: invalid price ranges")
	// ErrStoreUnavailable signals that the backing store could not be reached.
	ErrStoreUnavailable = errors.New("transactions: store unavailable")
	// ErrQueryFailed signals that the backing store rejected or failed a query.
	ErrQueryFailed = errors.New("transactions: query failed")
)

// Sections of the combined dashboard payload.
const (
	SectionStatistics = "statistics"
	SectionBarChart   = "barChart"
	SectionPieChart   = "pieChart"
)

// AggregationError reports which part of a combined query failed.
type AggregationError struct {
	Section string
	Period  Period
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("transactions: %s aggregation for %s failed: %v", e.Section, e.Period, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by caller input rather than infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) || errors.Is(err, ErrInvalidPage)
}
