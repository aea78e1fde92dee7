package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single sales record as stored by the dashboard backend.
type Transaction struct {
	ID          int64
	Title       string
	Description string
	Price       decimal.Decimal
	DateOfSale  time.Time
	Category    string
	Sold        bool
	Image       string
}

// PriceText renders the price the way free-text search sees it.
func (t Transaction) PriceText() string {
	return t.Price.StringFixed(2)
}

// Page is one slice of a filtered listing.
type Page struct {
	Transactions []Transaction
	Total        int
	Page         int
	PerPage      int
}

// Statistics summarises sales activity inside a period.
type Statistics struct {
	TotalSaleAmount   decimal.Decimal
	TotalSoldItems    int64
	TotalNotSoldItems int64
}

// HistogramBucket reports how many records fall into one price range.
type HistogramBucket struct {
	Range string
	Count int64
}

// CategoryCount pairs a category label with its record count.
type CategoryCount struct {
	Category string
	Count    int64
}

// Combined merges the three chart aggregations computed for one period.
type Combined struct {
	Period     Period
	Statistics Statistics
	BarChart   []HistogramBucket
	PieChart   []CategoryCount
}

// PeriodFilter selects the month (and optionally the year) to aggregate.
type PeriodFilter struct {
	Month string
	Year  int
}

// ListFilter scopes a paginated listing.
type ListFilter struct {
	Month   string
	Year    int
	Search  string
	Page    int
	PerPage int
}
