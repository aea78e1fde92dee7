package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/txdash/internal/jobs"
	"github.com/odyssey-erp/txdash/internal/transactions"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TransactionStore is the write side used by seed runs.
type TransactionStore interface {
	ReplaceAll(ctx context.Context, records []transactions.Transaction) (int64, error)
}

// CacheInvalidator drops cached aggregations after the collection changes.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// SeedJob downloads the transaction dataset and replaces the stored collection.
type SeedJob struct {
	Store      TransactionStore
	Cache      CacheInvalidator
	HTTPClient *http.Client
	DefaultURL string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewSeedJob wires dependencies for the seed handler.
func NewSeedJob(store TransactionStore, cache CacheInvalidator, defaultURL string, logger *slog.Logger, metrics *jobmetrics.Metrics) *SeedJob {
	return &SeedJob{
		Store:      store,
		Cache:      cache,
		HTTPClient: &http.Client{Timeout: time.Minute},
		DefaultURL: defaultURL,
		Logger:     logger,
		Metrics:    metrics,
	}
}

// Handle processes seed tasks.
func (j *SeedJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("seed: handler not configured")
	}
	var payload SeedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("seed: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run executes one seed run and reports the number of stored transactions.
func (j *SeedJob) Run(ctx context.Context, payload SeedPayload) (n int64, resultErr error) {
	tracker := j.metrics().Track(TaskTransactionsSeed)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	url := payload.URL
	if url == "" {
		url = j.DefaultURL
	}
	if url == "" {
		return 0, fmt.Errorf("seed: no dataset url configured: %w", asynq.SkipRetry)
	}
	logger := j.logger().With(slog.String("run_id", payload.RunID), slog.String("url", url))
	logger.Info("starting seed")
	start := time.Now()

	records, err := j.fetch(ctx, url)
	if err != nil {
		logger.Error("fetch dataset", slog.Any("error", err))
		return 0, err
	}
	n, err = j.Store.ReplaceAll(ctx, records)
	if err != nil {
		logger.Error("replace transactions", slog.Any("error", err))
		return 0, err
	}
	j.metrics().AddSeeded(n)

	if j.Cache != nil {
		if err := j.Cache.InvalidateCache(ctx); err != nil {
			logger.Warn("invalidate cache after seed", slog.Any("error", err))
		}
	}
	logger.Info("completed seed", slog.Int64("transactions", n), slog.Duration("duration", time.Since(start)))
	return n, nil
}

func (j *SeedJob) fetch(ctx context.Context, url string) ([]transactions.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("seed: build request: %v: %w", err, asynq.SkipRetry)
	}
	req.Header.Set("Accept", "application/json")
	client := j.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seed: fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed: fetch dataset: unexpected status %d", resp.StatusCode)
	}
	records, err := transactions.DecodeDataset(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("seed: %v: %w", err, asynq.SkipRetry)
	}
	return records, nil
}

func (j *SeedJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTransactionsSeed))
	}
	return slog.Default().With(slog.String("job", TaskTransactionsSeed))
}

func (j *SeedJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
