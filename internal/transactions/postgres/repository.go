package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/txdash/internal/platform/db"
	"github.com/odyssey-erp/txdash/internal/transactions"
)

const selectColumns = `id, title, description, price::text, date_of_sale, category, sold, image`

// Repository reads and replaces the transactions table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns matching rows ordered by sale date then id.
func (r *Repository) List(ctx context.Context, filter transactions.Filter, limit, offset int) ([]transactions.Transaction, error) {
	query, args := listQuery(filter, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list", err)
	}
	defer rows.Close()

	items := make([]transactions.Transaction, 0, limit)
	for rows.Next() {
		var (
			tx    transactions.Transaction
			price string
		)
		if err := rows.Scan(&tx.ID, &tx.Title, &tx.Description, &price, &tx.DateOfSale, &tx.Category, &tx.Sold, &tx.Image); err != nil {
			return nil, classify("list scan", err)
		}
		if tx.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("postgres: list: price of %d: %w: %w", tx.ID, transactions.ErrQueryFailed, err)
		}
		items = append(items, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list rows", err)
	}
	return items, nil
}

// Count returns the number of rows matching the filter.
func (r *Repository) Count(ctx context.Context, filter transactions.Filter) (int, error) {
	where, args := filter.Where(0)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return 0, classify("count", err)
	}
	return total, nil
}

// Statistics sums sold prices and counts sold and unsold rows in one pass.
func (r *Repository) Statistics(ctx context.Context, period transactions.Period) (transactions.Statistics, error) {
	query, args := statisticsQuery(period)
	var (
		stats transactions.Statistics
		total string
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total, &stats.TotalSoldItems, &stats.TotalNotSoldItems); err != nil {
		return transactions.Statistics{}, classify("statistics", err)
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return transactions.Statistics{}, fmt.Errorf("postgres: statistics: %w: %w", transactions.ErrQueryFailed, err)
	}
	stats.TotalSaleAmount = amount
	return stats, nil
}

// PriceHistogram counts rows per price range with one filtered aggregate per range.
func (r *Repository) PriceHistogram(ctx context.Context, period transactions.Period, ranges []transactions.PriceRange) ([]int64, error) {
	if len(ranges) == 0 {
		return []int64{}, nil
	}
	query, args := histogramQuery(period, ranges)
	counts := make([]int64, len(ranges))
	dest := make([]any, len(ranges))
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, classify("histogram", err)
	}
	return counts, nil
}

// CategoryCounts groups rows by category.
func (r *Repository) CategoryCounts(ctx context.Context, period transactions.Period) ([]transactions.CategoryCount, error) {
	where, args := period.Where(0)
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM transactions WHERE `+where+` GROUP BY category ORDER BY category`, args...)
	if err != nil {
		return nil, classify("categories", err)
	}
	defer rows.Close()

	counts := make([]transactions.CategoryCount, 0)
	for rows.Next() {
		var c transactions.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, classify("categories scan", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("categories rows", err)
	}
	return counts, nil
}

func listQuery(filter transactions.Filter, limit, offset int) (string, []any) {
	where, args := filter.Where(0)
	n := len(args)
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE ` + where +
		fmt.Sprintf(` ORDER BY date_of_sale, id LIMIT $%d OFFSET $%d`, n+1, n+2)
	return query, append(args, limit, offset)
}

func statisticsQuery(period transactions.Period) (string, []any) {
	where, args := period.Where(0)
	return `SELECT COALESCE(SUM(price) FILTER (WHERE sold), 0)::text, ` +
		`COUNT(*) FILTER (WHERE sold), ` +
		`COUNT(*) FILTER (WHERE NOT sold) ` +
		`FROM transactions WHERE ` + where, args
}

// histogramQuery emits one COUNT FILTER column per range. Range bounds are
// numbered after the period arguments; unbounded ranges bind only a minimum.
func histogramQuery(period transactions.Period, ranges []transactions.PriceRange) (string, []any) {
	where, args := period.Where(0)
	columns := make([]string, 0, len(ranges))
	for _, pr := range ranges {
		args = append(args, numeric(pr.Min))
		cond := fmt.Sprintf("price >= $%d", len(args))
		if !pr.Unbounded {
			args = append(args, numeric(pr.Max))
			cond += fmt.Sprintf(" AND price <= $%d", len(args))
		}
		columns = append(columns, "COUNT(*) FILTER (WHERE "+cond+")")
	}
	return `SELECT ` + strings.Join(columns, ", ") + ` FROM transactions WHERE ` + where, args
}

// ReplaceAll swaps the table contents for the given records in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, records []transactions.Transaction) (int64, error) {
	var copied int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE transactions`); err != nil {
			return classify("truncate", err)
		}
		rows := make([][]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, []any{rec.ID, rec.Title, rec.Description, numeric(rec.Price), rec.DateOfSale, rec.Category, rec.Sold, rec.Image})
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"transactions"},
			[]string{"id", "title", "description", "price", "date_of_sale", "category", "sold", "image"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return classify("copy", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// classify maps driver errors onto the store error kinds. Server-side errors
// are query failures; everything else means the store could not be reached.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("postgres: %s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres: %s: %w: %s (%s)", op, transactions.ErrQueryFailed, pgErr.Message, pgErr.Code)
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, pgx.ErrTooManyRows) {
		return fmt.Errorf("postgres: %s: %w: %w", op, transactions.ErrQueryFailed, err)
	}
	return fmt.Errorf("postgres: %s: %w: %w", op, transactions.ErrStoreUnavailable, err)
}
