package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTransactionsSeed replaces the transaction collection from the seed URL.
	TaskTransactionsSeed = "transactions:seed"
	// TaskTransactionsWarmup pre-computes the combined dashboard for every month.
	TaskTransactionsWarmup = "transactions:warmup"
)

// SeedPayload describes one seed run. An empty URL falls back to the
// worker's configured SEED_URL.
type SeedPayload struct {
	RunID string `json:"run_id"`
	URL   string `json:"url,omitempty"`
}

// WarmupPayload selects the year to warm; zero warms the all-years view.
type WarmupPayload struct {
	Year int `json:"year,omitempty"`
}

// NewSeedTask builds a seed task with a fresh run id. The run id doubles as
// the asynq task id so a run cannot be enqueued twice.
func NewSeedTask(url string) (*asynq.Task, SeedPayload, error) {
	payload := SeedPayload{RunID: uuid.NewString(), URL: url}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, SeedPayload{}, err
	}
	task := asynq.NewTask(TaskTransactionsSeed, data,
		asynq.TaskID(payload.RunID),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	return task, payload, nil
}

// NewWarmupTask builds a warmup task for year.
func NewWarmupTask(year int) (*asynq.Task, error) {
	if year < 0 || year > 9999 {
		return nil, fmt.Errorf("jobs: warmup year %d out of range", year)
	}
	data, err := json.Marshal(WarmupPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransactionsWarmup, data), nil
}
