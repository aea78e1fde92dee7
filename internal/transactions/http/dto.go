package transactionhttp

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/txdash/internal/shared"
	"github.com/odyssey-erp/txdash/internal/transactions"
)

const dateLayout = "2006-01-02"

type transactionDTO struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	DateOfSale  string      `json:"dateOfSale"`
	Category    string      `json:"category"`
	Sold        bool        `json:"sold"`
	Image       string      `json:"image,omitempty"`
}

type listResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	PerPage      int              `json:"perPage"`
	TotalPages   int              `json:"totalPages"`
}

type statisticsResponse struct {
	TotalSaleAmount   json.Number `json:"totalSaleAmount"`
	TotalSoldItems    int64       `json:"totalSoldItems"`
	TotalNotSoldItems int64       `json:"totalNotSoldItems"`
}

type barChartEntry struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

type pieChartEntry struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type combinedResponse struct {
	Statistics statisticsResponse `json:"statistics"`
	BarChart   []barChartEntry    `json:"barChart"`
	PieChart   []pieChartEntry    `json:"pieChart"`
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toListResponse(page transactions.Page) listResponse {
	meta := shared.NewPagination(page.Page, page.PerPage, page.Total)
	items := make([]transactionDTO, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		items = append(items, transactionDTO{
			ID:          tx.ID,
			Title:       tx.Title,
			Description: tx.Description,
			Price:       amount(tx.Price),
			DateOfSale:  tx.DateOfSale.Format(dateLayout),
			Category:    tx.Category,
			Sold:        tx.Sold,
			Image:       tx.Image,
		})
	}
	return listResponse{
		Transactions: items,
		Total:        meta.Total,
		Page:         meta.Page,
		PerPage:      meta.PerPage,
		TotalPages:   meta.TotalPages,
	}
}

func toStatisticsResponse(stats transactions.Statistics) statisticsResponse {
	return statisticsResponse{
		TotalSaleAmount:   amount(stats.TotalSaleAmount),
		TotalSoldItems:    stats.TotalSoldItems,
		TotalNotSoldItems: stats.TotalNotSoldItems,
	}
}

func toBarChart(buckets []transactions.HistogramBucket) []barChartEntry {
	out := make([]barChartEntry, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, barChartEntry{Range: b.Range, Count: b.Count})
	}
	return out
}

func toPieChart(counts []transactions.CategoryCount) []pieChartEntry {
	out := make([]pieChartEntry, 0, len(counts))
	for _, c := range counts {
		out = append(out, pieChartEntry{Category: c.Category, Count: c.Count})
	}
	return out
}

func toCombinedResponse(c transactions.Combined) combinedResponse {
	return combinedResponse{
		Statistics: toStatisticsResponse(c.Statistics),
		BarChart:   toBarChart(c.BarChart),
		PieChart:   toPieChart(c.PieChart),
	}
}
