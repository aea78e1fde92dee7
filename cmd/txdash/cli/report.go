package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/odyssey-erp/txdash/internal/transactions"
)

// CombinedQuerier computes the combined dashboard for a period.
type CombinedQuerier interface {
	Combined(ctx context.Context, filter transactions.PeriodFilter) (transactions.Combined, error)
}

// ReportOptions defines the flags of the report command.
type ReportOptions struct {
	Month      string
	Year       int
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// Exit codes returned by ReportCommand.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitBadMonth = 2
)

type reportSummary struct {
	Period            string              `json:"period"`
	TotalSaleAmount   json.Number         `json:"totalSaleAmount"`
	TotalSoldItems    int64               `json:"totalSoldItems"`
	TotalNotSoldItems int64               `json:"totalNotSoldItems"`
	BarChart          []reportBucket      `json:"barChart"`
	PieChart          []reportCategoryRow `json:"pieChart"`
}

type reportBucket struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

type reportCategoryRow struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ReportCommand prints the combined dashboard for one month.
func ReportCommand(ctx context.Context, service CombinedQuerier, opts ReportOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	if opts.Month == "" {
		_, _ = fmt.Fprintln(stderr, "report: --month is required")
		return ExitBadMonth
	}
	combined, err := service.Combined(ctx, transactions.PeriodFilter{Month: opts.Month, Year: opts.Year})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "report: %v\n", err)
		if errors.Is(err, transactions.ErrInvalidMonth) {
			return ExitBadMonth
		}
		return ExitFailure
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(stdout).Encode(buildReportSummary(combined)); err != nil {
			_, _ = fmt.Fprintf(stderr, "report: encode json: %v\n", err)
			return ExitFailure
		}
		return ExitOK
	}
	renderReport(stdout, combined)
	return ExitOK
}

func buildReportSummary(c transactions.Combined) reportSummary {
	summary := reportSummary{
		Period:            c.Period.String(),
		TotalSaleAmount:   json.Number(c.Statistics.TotalSaleAmount.StringFixed(2)),
		TotalSoldItems:    c.Statistics.TotalSoldItems,
		TotalNotSoldItems: c.Statistics.TotalNotSoldItems,
		BarChart:          make([]reportBucket, 0, len(c.BarChart)),
		PieChart:          make([]reportCategoryRow, 0, len(c.PieChart)),
	}
	for _, b := range c.BarChart {
		summary.BarChart = append(summary.BarChart, reportBucket{Range: b.Range, Count: b.Count})
	}
	for _, row := range c.PieChart {
		summary.PieChart = append(summary.PieChart, reportCategoryRow{Category: row.Category, Count: row.Count})
	}
	return summary
}

func renderReport(out io.Writer, c transactions.Combined) {
	_, _ = fmt.Fprintf(out, "Transactions for %s\n\n", c.Period)

	stats := tablewriter.NewWriter(out)
	stats.SetHeader([]string{"Total sale amount", "Sold items", "Not sold items"})
	stats.Append([]string{
		c.Statistics.TotalSaleAmount.StringFixed(2),
		strconv.FormatInt(c.Statistics.TotalSoldItems, 10),
		strconv.FormatInt(c.Statistics.TotalNotSoldItems, 10),
	})
	stats.Render()

	_, _ = fmt.Fprintln(out)
	bars := tablewriter.NewWriter(out)
	bars.SetHeader([]string{"Price range", "Items"})
	bars.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, b := range c.BarChart {
		bars.Append([]string{b.Range, strconv.FormatInt(b.Count, 10)})
	}
	bars.Render()

	_, _ = fmt.Fprintln(out)
	pie := tablewriter.NewWriter(out)
	pie.SetHeader([]string{"Category", "Items"})
	for _, row := range c.PieChart {
		pie.Append([]string{row.Category, strconv.FormatInt(row.Count, 10)})
	}
	if len(c.PieChart) == 0 {
		pie.SetFooter([]string{"no sales", "0"})
	}
	pie.Render()
}
