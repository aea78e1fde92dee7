package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/txdash/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// SeedOptions configures the seed command.
type SeedOptions struct {
	URL    string
	Stdout io.Writer
	Stderr io.Writer
}

// SeedCommand enqueues a seed run and prints its run id.
func (c *JobsCLI) SeedCommand(ctx context.Context, opts SeedOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	if c == nil || c.client == nil {
		_, _ = fmt.Fprintln(stderr, "seed: client not configured")
		return 1
	}
	runID, info, err := c.client.EnqueueSeed(ctx, opts.URL)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "seed: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s run=%s queue=%s\n", jobs.TaskTransactionsSeed, runID, info.Queue)
	return 0
}

// WarmupCommand enqueues a cache warmup for year.
func (c *JobsCLI) WarmupCommand(ctx context.Context, year int, stdout, stderr io.Writer) int {
	stdout, stderr = writers(stdout, stderr)
	if c == nil || c.client == nil {
		_, _ = fmt.Fprintln(stderr, "warmup: client not configured")
		return 1
	}
	info, err := c.client.EnqueueWarmup(ctx, year)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "warmup: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", jobs.TaskTransactionsWarmup, info.ID, info.Queue)
	return 0
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

func writers(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}
