package transactions

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 1
	maxYear = 9999
)

var monthLookup = buildMonthLookup()

func buildMonthLookup() map[string]time.Month {
	lookup := make(map[string]time.Month, 24)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		lookup[name] = m
		lookup[name[:3]] = m
	}
	return lookup
}

// DateRange is a closed interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := civilDate(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Period identifies a recurring calendar month. A zero Year matches that month
// in every year.
type Period struct {
	Month time.Month
	Year  int
}

// AllYears reports whether the period ignores the year component.
func (p Period) AllYears() bool {
	return p.Year == 0
}

// Range returns the closed date range of the period. ok is false when the
// period spans every year.
func (p Period) Range() (DateRange, bool) {
	if p.AllYears() {
		return DateRange{}, false
	}
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: end}, true
}

// Contains reports whether a sale date belongs to the period.
func (p Period) Contains(t time.Time) bool {
	if r, ok := p.Range(); ok {
		return r.Contains(t)
	}
	return t.Month() == p.Month
}

func (p Period) String() string {
	if p.AllYears() {
		return p.Month.String()
	}
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// ParseMonth resolves a month name, three letter abbreviation or 1-12 number.
func ParseMonth(designator string) (time.Month, error) {
	value := strings.ToLower(strings.TrimSpace(designator))
	if m, ok := monthLookup[value]; ok {
		return m, nil
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, designator)
}

// ResolvePeriod normalises a month designator and optional year into a Period.
func ResolvePeriod(designator string, year int) (Period, error) {
	month, err := ParseMonth(designator)
	if err != nil {
		return Period{}, err
	}
	if year != 0 && (year < minYear || year > maxYear) {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, year)
	}
	return Period{Month: month, Year: year}, nil
}

// MonthRange returns the first and last day of the month in the given year.
func MonthRange(designator string, year int) (DateRange, error) {
	if year < minYear || year > maxYear {
		return DateRange{}, fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, year)
	}
	period, err := ResolvePeriod(designator, year)
	if err != nil {
		return DateRange{}, err
	}
	r, _ := period.Range()
	return r, nil
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
