// Package memory serves transactions from an in-process snapshot.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/txdash/internal/transactions"
)

// Repository keeps the collection in memory, ordered by sale date then id.
type Repository struct {
	mu    sync.RWMutex
	items []transactions.Transaction
}

// NewRepository builds a repository over a copy of items.
func NewRepository(items []transactions.Transaction) *Repository {
	r := &Repository{}
	r.set(items)
	return r
}

// LoadFile reads a dataset JSON file into a new repository.
func LoadFile(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memory: open dataset: %w", err)
	}
	defer f.Close()
	items, err := transactions.DecodeDataset(f)
	if err != nil {
		return nil, err
	}
	return NewRepository(items), nil
}

func (r *Repository) set(items []transactions.Transaction) {
	sorted := make([]transactions.Transaction, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.DateOfSale.Equal(b.DateOfSale) {
			return a.DateOfSale.Before(b.DateOfSale)
		}
		return a.ID < b.ID
	})
	r.mu.Lock()
	r.items = sorted
	r.mu.Unlock()
}

func (r *Repository) scan(match func(transactions.Transaction) bool, fn func(transactions.Transaction)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tx := range r.items {
		if match(tx) {
			fn(tx)
		}
	}
}

// List implements transactions.Repository.
func (r *Repository) List(ctx context.Context, filter transactions.Filter, limit, offset int) ([]transactions.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]transactions.Transaction, 0, limit)
	seen := 0
	r.scan(filter.Match, func(tx transactions.Transaction) {
		if seen >= offset && len(out) < limit {
			out = append(out, tx)
		}
		seen++
	})
	return out, nil
}

// Count implements transactions.Repository.
func (r *Repository) Count(ctx context.Context, filter transactions.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	total := 0
	r.scan(filter.Match, func(transactions.Transaction) { total++ })
	return total, nil
}

// Statistics implements transactions.Repository.
func (r *Repository) Statistics(ctx context.Context, period transactions.Period) (transactions.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return transactions.Statistics{}, err
	}
	stats := transactions.Statistics{TotalSaleAmount: decimal.Zero}
	r.scan(inPeriod(period), func(tx transactions.Transaction) {
		if tx.Sold {
			stats.TotalSaleAmount = stats.TotalSaleAmount.Add(tx.Price)
			stats.TotalSoldItems++
			return
		}
		stats.TotalNotSoldItems++
	})
	return stats, nil
}

// PriceHistogram implements transactions.Repository.
func (r *Repository) PriceHistogram(ctx context.Context, period transactions.Period, ranges []transactions.PriceRange) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make([]int64, len(ranges))
	r.scan(inPeriod(period), func(tx transactions.Transaction) {
		for i, pr := range ranges {
			if pr.Contains(tx.Price) {
				counts[i]++
			}
		}
	})
	return counts, nil
}

// CategoryCounts implements transactions.Repository.
func (r *Repository) CategoryCounts(ctx context.Context, period transactions.Period) ([]transactions.CategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byCategory := make(map[string]int64)
	r.scan(inPeriod(period), func(tx transactions.Transaction) {
		byCategory[tx.Category]++
	})
	counts := make([]transactions.CategoryCount, 0, len(byCategory))
	for category, n := range byCategory {
		counts = append(counts, transactions.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts, nil
}

// ReplaceAll swaps the snapshot.
func (r *Repository) ReplaceAll(ctx context.Context, items []transactions.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.set(items)
	return int64(len(items)), nil
}

func inPeriod(period transactions.Period) func(transactions.Transaction) bool {
	return func(tx transactions.Transaction) bool { return period.Contains(tx.DateOfSale) }
}
