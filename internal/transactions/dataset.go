package transactions

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type datasetRecord struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Sold        bool            `json:"sold"`
	DateOfSale  time.Time       `json:"dateOfSale"`
}

// DecodeDataset parses the product transaction JSON feed. Sale timestamps are
// reduced to the calendar date they were recorded on.
func DecodeDataset(r io.Reader) ([]Transaction, error) {
	var records []datasetRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("transactions: decode dataset: %w", err)
	}
	seen := make(map[int64]struct{}, len(records))
	out := make([]Transaction, 0, len(records))
	for i, rec := range records {
		if rec.ID <= 0 {
			return nil, fmt.Errorf("transactions: record %d: missing id", i)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("transactions: record %d: duplicate id %d", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if rec.Price.IsNegative() {
			return nil, fmt.Errorf("transactions: record %d: negative price", rec.ID)
		}
		if rec.DateOfSale.IsZero() {
			return nil, fmt.Errorf("transactions: record %d: missing dateOfSale", rec.ID)
		}
		out = append(out, Transaction{
			ID:          rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			Price:       rec.Price.Round(2),
			DateOfSale:  civilDate(rec.DateOfSale),
			Category:    rec.Category,
			Sold:        rec.Sold,
			Image:       rec.Image,
		})
	}
	return out, nil
}
