package transactionhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/txdash/internal/platform/httpx"
	"github.com/odyssey-erp/txdash/internal/transactions"
)

// DefaultQueryTimeout bounds each query when no timeout is configured.
const DefaultQueryTimeout = 30 * time.Second

// TransactionService defines the query contract used by the handler.
type TransactionService interface {
	List(ctx context.Context, filter transactions.ListFilter) (transactions.Page, error)
	Statistics(ctx context.Context, filter transactions.PeriodFilter) (transactions.Statistics, error)
	Histogram(ctx context.Context, filter transactions.PeriodFilter) ([]transactions.HistogramBucket, error)
	Categories(ctx context.Context, filter transactions.PeriodFilter) ([]transactions.CategoryCount, error)
	Combined(ctx context.Context, filter transactions.PeriodFilter) (transactions.Combined, error)
}

// Handler serves the dashboard's JSON query endpoints.
type Handler struct {
	logger    *slog.Logger
	service   TransactionService
	validator *validator.Validate
	now       func() time.Time
	timeout   time.Duration
}

// NewHandler constructs the transactions HTTP handler. timeout bounds every
// query; non-positive values use DefaultQueryTimeout.
func NewHandler(logger *slog.Logger, service TransactionService, timeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		now:       time.Now,
		timeout:   timeout,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type periodQuery struct {
	Month string `validate:"required,max=20"`
	Year  int    `validate:"omitempty,min=1,max=9999"`
}

type listQuery struct {
	periodQuery
	Search  string `validate:"max=200"`
	Page    int    `validate:"min=1"`
	PerPage int    `validate:"min=1,max=100"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseListQuery(r)
	if err != nil {
		h.respondError(w, r, "parse list query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.service.List(ctx, transactions.ListFilter{
		Month:   q.Month,
		Year:    q.Year,
		Search:  q.Search,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		h.respondError(w, r, "list transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(page))
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parsePeriodQuery(r)
	if err != nil {
		h.respondError(w, r, "parse period", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.service.Statistics(ctx, filter)
	if err != nil {
		h.respondError(w, r, "statistics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStatisticsResponse(stats))
}

func (h *Handler) handleBarChart(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parsePeriodQuery(r)
	if err != nil {
		h.respondError(w, r, "parse period", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buckets, err := h.service.Histogram(ctx, filter)
	if err != nil {
		h.respondError(w, r, "bar chart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBarChart(buckets))
}

func (h *Handler) handlePieChart(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parsePeriodQuery(r)
	if err != nil {
		h.respondError(w, r, "parse period", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	counts, err := h.service.Categories(ctx, filter)
	if err != nil {
		h.respondError(w, r, "pie chart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPieChart(counts))
}

func (h *Handler) handleCombined(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parsePeriodQuery(r)
	if err != nil {
		h.respondError(w, r, "parse period", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	combined, err := h.service.Combined(ctx, filter)
	if err != nil {
		h.respondError(w, r, "combined", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCombinedResponse(combined))
}

func (h *Handler) parsePeriodQuery(r *http.Request) (transactions.PeriodFilter, error) {
	q, err := h.readPeriod(r)
	if err != nil {
		return transactions.PeriodFilter{}, err
	}
	if err := h.check(q); err != nil {
		return transactions.PeriodFilter{}, err
	}
	return transactions.PeriodFilter{Month: q.Month, Year: q.Year}, nil
}

func (h *Handler) parseListQuery(r *http.Request) (listQuery, error) {
	period, err := h.readPeriod(r)
	if err != nil {
		return listQuery{}, err
	}
	values := r.URL.Query()
	q := listQuery{
		periodQuery: period,
		Search:      strings.TrimSpace(values.Get("search")),
		Page:        1,
		PerPage:     transactions.DefaultPerPage,
	}
	if q.Page, err = intParam(values.Get("page"), "page", q.Page); err != nil {
		return listQuery{}, err
	}
	perPage := values.Get("perPage")
	if perPage == "" {
		perPage = values.Get("per_page")
	}
	if q.PerPage, err = intParam(perPage, "perPage", q.PerPage); err != nil {
		return listQuery{}, err
	}
	if err := h.check(q); err != nil {
		return listQuery{}, err
	}
	return q, nil
}

func (h *Handler) readPeriod(r *http.Request) (periodQuery, error) {
	values := r.URL.Query()
	q := periodQuery{Month: strings.TrimSpace(values.Get("month"))}
	if q.Month == "" {
		q.Month = h.now().UTC().Month().String()
	}
	year, err := intParam(values.Get("year"), "year", 0)
	if err != nil {
		return periodQuery{}, err
	}
	q.Year = year
	return q, nil
}

func (h *Handler) check(v any) error {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return validationError{field: lowerFirst(fieldErrs[0].Field())}
	}
	return err
}

func intParam(raw, field string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError{field: field}
	}
	return v, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		vErr   validationError
		aggErr *transactions.AggregationError
	)
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", vErr.Error())
	case errors.Is(err, transactions.ErrInvalidMonth):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Month", err.Error())
	case errors.Is(err, transactions.ErrInvalidPage):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Page", err.Error())
	case errors.As(err, &aggErr):
		h.logError(r, op, err, slog.String("section", aggErr.Section))
		httpx.Problem(w, storeStatus(err), "Aggregation Failed", fmt.Sprintf("%s aggregation failed", aggErr.Section))
	default:
		h.logError(r, op, err)
		status := storeStatus(err)
		httpx.Problem(w, status, http.StatusText(status), "")
	}
}

func storeStatus(err error) int {
	if errors.Is(err, transactions.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) logError(r *http.Request, op string, err error, attrs ...any) {
	args := append([]any{
		slog.String("path", r.URL.Path),
		slog.String("query", r.URL.RawQuery),
		slog.Any("error", err),
	}, attrs...)
	h.logger.Error(op, args...)
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
