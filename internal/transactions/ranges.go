package transactions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceRange is one histogram bucket. Bounds are inclusive; an Unbounded range
// has no upper limit.
type PriceRange struct {
	Label     string
	Min       decimal.Decimal
	Max       decimal.Decimal
	Unbounded bool
}

// Contains reports whether price lies inside the bucket.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.Min) {
		return false
	}
	return r.Unbounded || !price.GreaterThan(r.Max)
}

// DefaultPriceRanges are the dashboard buckets used when none are configured.
func DefaultPriceRanges() []PriceRange {
	ranges, err := ParsePriceRanges("0-100,101-200,201-300,301-400,401-500,501-600,601-700,701-800,801-900,901-")
	if err != nil {
		panic(err)
	}
	return ranges
}

// ParsePriceRanges reads a comma separated list such as "0-100,101-200,901-".
// A missing upper bound makes the range open ended. The result is validated.
func ParsePriceRanges(raw string) ([]PriceRange, error) {
	parts := strings.Split(raw, ",")
	ranges := make([]PriceRange, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		if !found {
			return nil, fmt.Errorf("%w: %q is not min-max", ErrInvalidPriceRanges, part)
		}
		min, err := decimal.NewFromString(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPriceRanges, part, err)
		}
		r := PriceRange{Min: min}
		hi = strings.TrimSpace(hi)
		if hi == "" || strings.EqualFold(hi, "above") {
			r.Unbounded = true
			r.Label = min.String() + "-above"
		} else {
			max, err := decimal.NewFromString(hi)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPriceRanges, part, err)
			}
			r.Max = max
			r.Label = min.String() + "-" + max.String()
		}
		ranges = append(ranges, r)
	}
	if err := ValidatePriceRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

// ValidatePriceRanges rejects empty, negative, inverted and overlapping
// configurations. Gaps between ranges are allowed.
func ValidatePriceRanges(ranges []PriceRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: at least one range required", ErrInvalidPriceRanges)
	}
	sorted := make([]PriceRange, len(ranges))
	copy(sorted, ranges)
	for _, r := range sorted {
		if r.Min.IsNegative() {
			return fmt.Errorf("%w: %s has a negative lower bound", ErrInvalidPriceRanges, r.Label)
		}
		if !r.Unbounded && r.Max.LessThan(r.Min) {
			return fmt.Errorf("%w: %s has min above max", ErrInvalidPriceRanges, r.Label)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min.LessThan(sorted[j].Min) })
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if prev.Unbounded || !next.Min.GreaterThan(prev.Max) {
			return fmt.Errorf("%w: %s overlaps %s", ErrInvalidPriceRanges, prev.Label, next.Label)
		}
	}
	return nil
}

func rangesToken(ranges []PriceRange) string {
	labels := make([]string, 0, len(ranges))
	for _, r := range ranges {
		labels = append(labels, r.Label)
	}
	return strings.Join(labels, ",")
}
