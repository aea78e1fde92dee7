package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/txdash/internal/observability"
	"github.com/odyssey-erp/txdash/internal/transactions"
	transactionhttp "github.com/odyssey-erp/txdash/internal/transactions/http"
	"github.com/odyssey-erp/txdash/internal/transactions/memory"
	"github.com/odyssey-erp/txdash/jobs"
)

func testRouter(t *testing.T, checks map[string]HealthCheck) (http.Handler, *observability.Metrics) {
	t.Helper()
	repo, err := memory.LoadFile("../transactions/testdata/dataset.json")
	require.NoError(t, err)
	service := transactions.NewService(repo, nil, nil)
	metrics := observability.NewMetrics()
	cfg := &Config{AppEnv: "production", CORSOrigins: []string{"https://dash.example"}}
	return NewRouter(RouterParams{
		Config:              cfg,
		TransactionsHandler: transactionhttp.NewHandler(nil, service, 0),
		JobHandler:          jobs.NewHandler(nil, nil),
		Metrics:             metrics,
		Checks:              checks,
	}), metrics
}

func get(h http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthzReportsChecks(t *testing.T) {
	router, _ := testRouter(t, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	rr := get(router, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","postgres":"up"}`, rr.Body.String())

	router, _ = testRouter(t, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return errors.New("refused") },
	})
	rr = get(router, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","postgres":"down"}`, rr.Body.String())
}

func TestAPIIsMountedWithSecurityHeaders(t *testing.T) {
	router, metrics := testRouter(t, nil)

	rr := get(router, "/api/statistics?month=January&year=2021", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"totalSaleAmount":200,"totalSoldItems":2,"totalNotSoldItems":1}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRR.Body.String(), `txdash_http_requests_total{code="200",route="/api/statistics"} 1`)
}

func TestCORSAllowsDashboardOrigin(t *testing.T) {
	router, _ := testRouter(t, nil)

	rr := get(router, "/api/pie-chart?month=1", map[string]string{"Origin": "https://dash.example"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://dash.example", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = get(router, "/api/pie-chart?month=1", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIsProblem(t *testing.T) {
	router, _ := testRouter(t, nil)

	rr := get(router, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, http.StatusNotFound, body["status"])
}

func TestJobsHealthIsMounted(t *testing.T) {
	router, _ := testRouter(t, nil)

	rr := get(router, "/jobs/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"queue":"default"`)
}
