package transactionhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/txdash/internal/transactions"
)

type stubService struct {
	page     transactions.Page
	stats    transactions.Statistics
	buckets  []transactions.HistogramBucket
	counts   []transactions.CategoryCount
	combined transactions.Combined
	err      error

	lastList     transactions.ListFilter
	lastPeriod   transactions.PeriodFilter
	lastDeadline time.Duration
}

func (s *stubService) List(ctx context.Context, filter transactions.ListFilter) (transactions.Page, error) {
	s.lastList = filter
	return s.page, s.err
}

func (s *stubService) Statistics(ctx context.Context, filter transactions.PeriodFilter) (transactions.Statistics, error) {
	s.lastPeriod = filter
	if deadline, ok := ctx.Deadline(); ok {
		s.lastDeadline = time.Until(deadline)
	}
	return s.stats, s.err
}

func (s *stubService) Histogram(ctx context.Context, filter transactions.PeriodFilter) ([]transactions.HistogramBucket, error) {
	s.lastPeriod = filter
	return s.buckets, s.err
}

func (s *stubService) Categories(ctx context.Context, filter transactions.PeriodFilter) ([]transactions.CategoryCount, error) {
	s.lastPeriod = filter
	return s.counts, s.err
}

func (s *stubService) Combined(ctx context.Context, filter transactions.PeriodFilter) (transactions.Combined, error) {
	s.lastPeriod = filter
	return s.combined, s.err
}

func newTestRouter(t *testing.T, service *stubService) http.Handler {
	t.Helper()
	handler := NewHandler(nil, service, 0)
	handler.WithNow(func() time.Time { return time.Date(2022, time.March, 15, 0, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	r.Route("/api", handler.MountRoutes)
	return r
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestListReturnsPageEnvelope(t *testing.T) {
	service := &stubService{page: transactions.Page{
		Transactions: []transactions.Transaction{{
			ID:          3,
			Title:       "Bracelet",
			Description: "Gold chain",
			Price:       decimal.RequireFromString("80.50"),
			DateOfSale:  time.Date(2021, time.January, 20, 0, 0, 0, 0, time.UTC),
			Category:    "jewelery",
		}},
		Total:   3,
		Page:    2,
		PerPage: 2,
	}}
	rr := serve(t, newTestRouter(t, service), "/api/transactions?month=January&search=%20gold%20&page=2&per_page=2")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, transactions.ListFilter{Month: "January", Search: "gold", Page: 2, PerPage: 2}, service.lastList)

	body := decodeBody(t, rr)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 2, body["perPage"])
	assert.EqualValues(t, 2, body["totalPages"])
	items := body["transactions"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.EqualValues(t, 3, item["id"])
	assert.EqualValues(t, 80.5, item["price"])
	assert.Equal(t, "2021-01-20", item["dateOfSale"])
	assert.Equal(t, false, item["sold"])
}

func TestListEmptyPageEncodesArray(t *testing.T) {
	service := &stubService{page: transactions.Page{Transactions: []transactions.Transaction{}, Total: 3, Page: 9, PerPage: 10}}
	rr := serve(t, newTestRouter(t, service), "/api/transactions?month=1")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"transactions":[]`)
}

func TestListDefaultsToCurrentMonth(t *testing.T) {
	service := &stubService{page: transactions.Page{Page: 1, PerPage: 10}}
	rr := serve(t, newTestRouter(t, service), "/api/transactions")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "March", service.lastList.Month)
	assert.Equal(t, 1, service.lastList.Page)
	assert.Equal(t, transactions.DefaultPerPage, service.lastList.PerPage)
}

func TestListRejectsBadParameters(t *testing.T) {
	cases := map[string]string{
		"non numeric page":  "/api/transactions?month=March&page=two",
		"zero page":         "/api/transactions?month=March&page=0",
		"per page too big":  "/api/transactions?month=March&perPage=101",
		"year out of range": "/api/transactions?month=March&year=10000",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			service := &stubService{}
			rr := serve(t, newTestRouter(t, service), target)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
			assert.Equal(t, transactions.ListFilter{}, service.lastList)
		})
	}
}

func TestStatisticsEncodesAmountAsNumber(t *testing.T) {
	service := &stubService{stats: transactions.Statistics{
		TotalSaleAmount:   decimal.NewFromInt(200),
		TotalSoldItems:    2,
		TotalNotSoldItems: 1,
	}}
	rr := serve(t, newTestRouter(t, service), "/api/statistics?month=jan&year=2021")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, transactions.PeriodFilter{Month: "jan", Year: 2021}, service.lastPeriod)
	assert.JSONEq(t, `{"totalSaleAmount":200,"totalSoldItems":2,"totalNotSoldItems":1}`, rr.Body.String())
}

func TestInvalidMonthIsBadRequest(t *testing.T) {
	service := &stubService{err: errors.Join(transactions.ErrInvalidMonth, errors.New(`"Foo"`))}
	for _, path := range []string{"/api/statistics", "/api/bar-chart", "/api/pie-chart", "/api/combined", "/api/transactions"} {
		rr := serve(t, newTestRouter(t, service), path+"?month=Foo")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		body := decodeBody(t, rr)
		assert.Equal(t, "Invalid Month", body["title"], path)
	}
}

func TestChartsShapes(t *testing.T) {
	service := &stubService{
		buckets: []transactions.HistogramBucket{{Range: "0-100", Count: 2}, {Range: "101-200", Count: 1}},
		counts:  []transactions.CategoryCount{{Category: "bags", Count: 1}},
	}
	router := newTestRouter(t, service)

	for _, path := range []string{"/api/bar-chart", "/api/barchart"} {
		rr := serve(t, router, path+"?month=January")
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.JSONEq(t, `[{"range":"0-100","count":2},{"range":"101-200","count":1}]`, rr.Body.String(), path)
	}
	for _, path := range []string{"/api/pie-chart", "/api/piechart"} {
		rr := serve(t, router, path+"?month=January")
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.JSONEq(t, `[{"category":"bags","count":1}]`, rr.Body.String(), path)
	}
}

func TestCombinedShape(t *testing.T) {
	service := &stubService{combined: transactions.Combined{
		Statistics: transactions.Statistics{TotalSaleAmount: decimal.RequireFromString("10.25"), TotalSoldItems: 1},
		BarChart:   []transactions.HistogramBucket{{Range: "0-100", Count: 1}},
		PieChart:   []transactions.CategoryCount{{Category: "bags", Count: 1}},
	}}
	rr := serve(t, newTestRouter(t, service), "/api/combined-data?month=January")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"statistics": {"totalSaleAmount": 10.25, "totalSoldItems": 1, "totalNotSoldItems": 0},
		"barChart": [{"range": "0-100", "count": 1}],
		"pieChart": [{"category": "bags", "count": 1}]
	}`, rr.Body.String())
}

func TestCombinedFailureNamesSection(t *testing.T) {
	service := &stubService{err: &transactions.AggregationError{
		Section: transactions.SectionPieChart,
		Err:     transactions.ErrQueryFailed,
	}}
	rr := serve(t, newTestRouter(t, service), "/api/combined?month=January")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Aggregation Failed", body["title"])
	assert.Equal(t, "pieChart aggregation failed", body["detail"])
	assert.NotContains(t, body, "statistics")
}

func TestStoreUnavailableIsServiceUnavailable(t *testing.T) {
	service := &stubService{err: &transactions.AggregationError{
		Section: transactions.SectionStatistics,
		Err:     transactions.ErrStoreUnavailable,
	}}
	rr := serve(t, newTestRouter(t, service), "/api/combined?month=January")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	service.err = context.DeadlineExceeded
	rr = serve(t, newTestRouter(t, service), "/api/statistics?month=January")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	service.err = transactions.ErrQueryFailed
	rr = serve(t, newTestRouter(t, service), "/api/pie-chart?month=January")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestQueryTimeoutFollowsConfiguredValue(t *testing.T) {
	service := &stubService{}
	handler := NewHandler(nil, service, 2*time.Second)
	r := chi.NewRouter()
	r.Route("/api", handler.MountRoutes)

	rr := serve(t, r, "/api/statistics?month=January")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Greater(t, service.lastDeadline, time.Second)
	assert.LessOrEqual(t, service.lastDeadline, 2*time.Second)

	rr = serve(t, newTestRouter(t, service), "/api/statistics?month=January")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Greater(t, service.lastDeadline, DefaultQueryTimeout-time.Second)
}
