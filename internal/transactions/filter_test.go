package transactions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx() Transaction {
	return Transaction{
		ID:          7,
		Title:       "Mens Casual Slim Fit",
		Description: "The color could be slightly different",
		Price:       decimal.RequireFromString("15.99"),
		DateOfSale:  time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC),
		Category:    "men's clothing",
	}
}

func TestFilterMatch(t *testing.T) {
	march, err := ResolvePeriod("March", 0)
	require.NoError(t, err)
	april, err := ResolvePeriod("April", 0)
	require.NoError(t, err)
	tx := sampleTx()

	assert.True(t, NewFilter(march, "").Match(tx), "blank search matches whole month")
	assert.True(t, NewFilter(march, "   ").Match(tx), "whitespace search is treated as absent")
	assert.False(t, NewFilter(april, "").Match(tx), "other month never matches")
	assert.True(t, NewFilter(march, "slim").Match(tx), "title substring, case-insensitive")
	assert.True(t, NewFilter(march, "COLOR").Match(tx), "description substring")
	assert.True(t, NewFilter(march, "15.9").Match(tx), "price text substring")
	assert.False(t, NewFilter(march, "jacket").Match(tx))
	assert.False(t, NewFilter(april, "slim").Match(tx), "search never widens the period")
}

func TestFilterWhereWithoutSearch(t *testing.T) {
	period, err := ResolvePeriod("January", 2021)
	require.NoError(t, err)

	clause, args := NewFilter(period, "").Where(0)
	assert.Equal(t, "date_of_sale BETWEEN $1 AND $2", clause)
	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC), args[1])
}

func TestFilterWhereAllYearsWithSearch(t *testing.T) {
	period, err := ResolvePeriod("June", 0)
	require.NoError(t, err)

	clause, args := NewFilter(period, "50%_off").Where(2)
	assert.Equal(t, `EXTRACT(MONTH FROM date_of_sale) = $3 AND (title ILIKE $4 ESCAPE '\' OR description ILIKE $4 ESCAPE '\' OR price::text ILIKE $4 ESCAPE '\')`, clause)
	assert.Equal(t, []any{6, `%50\%\_off%`}, args)
}
