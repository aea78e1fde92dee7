package transactions

import (
	"context"
	"fmt"
)

const (
	// DefaultPerPage is the page size used when the caller leaves it unset.
	DefaultPerPage = 10
	// MaxPerPage caps the page size a caller may request.
	MaxPerPage = 100
)

// List returns one page of the month's transactions matching the search term,
// along with the total number of matches.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	page, perPage := filter.Page, filter.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 1 || perPage < 1 {
		return Page{}, fmt.Errorf("%w: page=%d perPage=%d", ErrInvalidPage, filter.Page, filter.PerPage)
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	period, err := ResolvePeriod(filter.Month, filter.Year)
	if err != nil {
		return Page{}, err
	}
	predicate := NewFilter(period, filter.Search)

	total, err := s.repo.Count(ctx, predicate)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: count: %w", period, err)
	}

	result := Page{Transactions: []Transaction{}, Total: total, Page: page, PerPage: perPage}
	pages := (total + perPage - 1) / perPage
	if page-1 >= pages {
		return result, nil
	}
	items, err := s.repo.List(ctx, predicate, perPage, (page-1)*perPage)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: page %d: %w", period, page, err)
	}
	if items != nil {
		result.Transactions = items
	}
	return result, nil
}
