package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/txdash/internal/jobs"
	"github.com/odyssey-erp/txdash/internal/transactions"
)

// CombinedQuerier computes the combined dashboard for a period.
type CombinedQuerier interface {
	Combined(ctx context.Context, filter transactions.PeriodFilter) (transactions.Combined, error)
}

// WarmupJob pre-populates the aggregation cache for the twelve months.
type WarmupJob struct {
	Service CombinedQuerier
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	timeout time.Duration
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(service CombinedQuerier, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{Service: service, Logger: logger, Metrics: metrics, timeout: 20 * time.Second}
}

// Handle processes warmup tasks.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("warmup: handler not configured")
	}
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload.Year)
	return err
}

// Run warms every month of year and returns how many months were computed.
func (j *WarmupJob) Run(ctx context.Context, year int) (warmed int, resultErr error) {
	tracker := j.metrics().Track(TaskTransactionsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", year))
	logger.Info("starting warmup")
	start := time.Now()

	for month := time.January; month <= time.December; month++ {
		if err := j.warmMonth(ctx, month, year); err != nil {
			logger.Error("warm month", slog.String("month", month.String()), slog.Any("error", err))
			j.metrics().AddWarmed(warmed)
			return warmed, err
		}
		warmed++
	}
	j.metrics().AddWarmed(warmed)
	logger.Info("completed warmup", slog.Int("months", warmed), slog.Duration("duration", time.Since(start)))
	return warmed, nil
}

func (j *WarmupJob) warmMonth(ctx context.Context, month time.Month, year int) error {
	timeout := j.timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	monthCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := j.Service.Combined(monthCtx, transactions.PeriodFilter{Month: month.String(), Year: year})
	return err
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTransactionsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTransactionsWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
