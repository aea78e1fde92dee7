package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/txdash/cmd/txdash/cli"
	"github.com/odyssey-erp/txdash/internal/app"
	"github.com/odyssey-erp/txdash/internal/observability"
	"github.com/odyssey-erp/txdash/internal/platform/cache"
	"github.com/odyssey-erp/txdash/internal/platform/db"
	"github.com/odyssey-erp/txdash/internal/transactions"
	transactionhttp "github.com/odyssey-erp/txdash/internal/transactions/http"
	"github.com/odyssey-erp/txdash/internal/transactions/memory"
	"github.com/odyssey-erp/txdash/internal/transactions/postgres"
	"github.com/odyssey-erp/txdash/jobs"
)

const usage = `usage: txdash <command> [flags]

commands:
  serve     run the HTTP API (default)
  migrate   apply database migrations
  seed      enqueue a dataset seed run
  warmup    enqueue a cache warmup run
  report    print the combined dashboard for a month
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	switch command {
	case "serve":
		return serve(ctx, cfg, app.NewLogger(cfg))
	case "migrate":
		return migrate(cfg, app.NewLoggerTo(cfg, stderr))
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ContinueOnError)
		fs.SetOutput(stderr)
		url := fs.String("url", "", "dataset URL (defaults to SEED_URL on the worker)")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		defer jobsCLI.Close()
		return jobsCLI.SeedCommand(ctx, cli.SeedOptions{URL: *url, Stdout: stdout, Stderr: stderr})
	case "warmup":
		fs := flag.NewFlagSet("warmup", flag.ContinueOnError)
		fs.SetOutput(stderr)
		year := fs.Int("year", 0, "year to warm; 0 warms the all-years view")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		defer jobsCLI.Close()
		return jobsCLI.WarmupCommand(ctx, *year, stdout, stderr)
	case "report":
		fs := flag.NewFlagSet("report", flag.ContinueOnError)
		fs.SetOutput(stderr)
		opts := cli.ReportOptions{Stdout: stdout, Stderr: stderr}
		fs.StringVar(&opts.Month, "month", "", "month name, abbreviation or number")
		fs.IntVar(&opts.Year, "year", 0, "restrict to one year")
		fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON instead of tables")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		logger := app.NewLoggerTo(cfg, stderr)
		backend, err := openBackend(ctx, cfg, logger)
		if err != nil {
			logger.Error("open backend", slog.Any("error", err))
			return 1
		}
		defer backend.Close()
		return cli.ReportCommand(ctx, backend.service, opts)
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backend", slog.Any("error", err))
		return 1
	}
	defer backend.Close()

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		TransactionsHandler: transactionhttp.NewHandler(logger, backend.service, cfg.AppRequestTimeout),
		JobHandler:          jobs.NewHandler(inspector, logger),
		Metrics:             metrics,
		Checks:              backend.checks,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serverCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.DataBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-serverCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}

func migrate(cfg *app.Config, logger *slog.Logger) int {
	if cfg.DataBackend != app.BackendPostgres {
		logger.Error("migrate requires the postgres backend", slog.String("backend", cfg.DataBackend))
		return 1
	}
	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}
	logger.Info("migrations applied")
	return 0
}

type stack struct {
	service *transactions.Service
	checks  map[string]app.HealthCheck
	closers []func()
}

func (b *stack) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend wires the configured repository with the Redis cache. A Redis
// outage at startup only disables caching.
func openBackend(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*stack, error) {
	b := &stack{checks: map[string]app.HealthCheck{}}

	var repo transactions.Repository
	switch cfg.DataBackend {
	case app.BackendMemory:
		mem, err := memory.LoadFile(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		repo = mem
	default:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.checks["postgres"] = pool.Ping
		repo = postgres.NewRepository(pool)
	}

	var redisClient *redis.Client
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		redisClient = client
		b.closers = append(b.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
	}

	b.service = transactions.NewService(repo, transactions.NewCache(redisClient, cfg.CacheTTL), cfg.Ranges()).
		WithLogger(logger).
		WithCombinedTimeout(cfg.AppRequestTimeout)
	return b, nil
}
