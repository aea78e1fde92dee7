package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/txdash/internal/transactions"
)

func loadFixture(t *testing.T) *Repository {
	t.Helper()
	repo, err := LoadFile("../testdata/dataset.json")
	require.NoError(t, err)
	return repo
}

func january(t *testing.T) transactions.Period {
	t.Helper()
	p, err := transactions.ResolvePeriod("January", 2021)
	require.NoError(t, err)
	return p
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("../testdata/missing.json")
	require.Error(t, err)
}

func TestListOrdersAndPages(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()
	filter := transactions.NewFilter(january(t), "")

	all, err := repo.List(ctx, filter, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID})

	page, err := repo.List(ctx, filter, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	total, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestListSearchesPriceText(t *testing.T) {
	repo := loadFixture(t)
	p, err := transactions.ResolvePeriod("feb", 0)
	require.NoError(t, err)

	items, err := repo.List(context.Background(), transactions.NewFilter(p, "109.9"), 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(4), items[0].ID)
}

func TestAggregationsForJanuary(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()
	period := january(t)

	stats, err := repo.Statistics(ctx, period)
	require.NoError(t, err)
	assert.True(t, stats.TotalSaleAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, int64(2), stats.TotalSoldItems)
	assert.Equal(t, int64(1), stats.TotalNotSoldItems)

	ranges, err := transactions.ParsePriceRanges("0-100,101-200")
	require.NoError(t, err)
	// Overlaps are only rejected at config load; the repository double counts.
	ranges = append(ranges, transactions.PriceRange{Label: "50-60", Min: decimal.NewFromInt(50), Max: decimal.NewFromInt(60)})
	counts, err := repo.PriceHistogram(ctx, period, ranges)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 1}, counts)

	cats, err := repo.CategoryCounts(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, []transactions.CategoryCount{
		{Category: "jewelery", Count: 1},
		{Category: "men's clothing", Count: 2},
	}, cats)
}

func TestAllYearsMatchesMonthAcrossYears(t *testing.T) {
	repo := NewRepository([]transactions.Transaction{
		{ID: 1, Price: decimal.NewFromInt(10), DateOfSale: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Price: decimal.NewFromInt(10), DateOfSale: time.Date(2022, time.March, 31, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Price: decimal.NewFromInt(10), DateOfSale: time.Date(2022, time.April, 1, 0, 0, 0, 0, time.UTC)},
	})
	ctx := context.Background()

	all, err := transactions.ResolvePeriod("March", 0)
	require.NoError(t, err)
	n, err := repo.Count(ctx, transactions.NewFilter(all, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	only2022, err := transactions.ResolvePeriod("March", 2022)
	require.NoError(t, err)
	n, err = repo.Count(ctx, transactions.NewFilter(only2022, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReplaceAllSwapsSnapshot(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()

	n, err := repo.ReplaceAll(ctx, []transactions.Transaction{
		{ID: 9, Price: decimal.NewFromInt(5), DateOfSale: time.Date(2021, time.January, 2, 0, 0, 0, 0, time.UTC), Sold: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	total, err := repo.Count(ctx, transactions.NewFilter(january(t), ""))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCancelledContext(t *testing.T) {
	repo := loadFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Statistics(ctx, january(t))
	assert.ErrorIs(t, err, context.Canceled)
}
