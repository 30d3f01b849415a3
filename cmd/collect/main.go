package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexwatch/internal/collector"
	"dexwatch/internal/config"
	"dexwatch/internal/httpclient"
	"dexwatch/internal/market"
	"dexwatch/internal/observability"
	"dexwatch/internal/scheduler"
	"dexwatch/internal/storage"
	chstore "dexwatch/internal/storage/clickhouse"
	"dexwatch/internal/storage/memory"
	"dexwatch/internal/storage/migrations"
	pgstore "dexwatch/internal/storage/postgres"
)

func main() {
	// Parse flags
	envPath := flag.String("env", ".env", "Path to .env file (missing file is ignored)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	once := flag.Bool("once", false, "Run a single collection sweep and exit")
	pair := flag.String("pair", "", "Collect a single pair address instead of the monitored set")
	chain := flag.String("chain", "", "Chain for --pair")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[collect] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*envPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" && !*once {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, logger, cfg, *useMemory, *once, *pair, *chain)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// run wires candle storage, the provider gateway and the collector,
// then sweeps monitored pairs once or on an interval.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config, useMemory, once bool, pair, chain string) error {
	if !useMemory {
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required (use --use-memory for in-memory storage)")
		}
		if cfg.ClickHouseDSN == "" {
			return fmt.Errorf("CLICKHOUSE_DSN is required (use --use-memory for in-memory storage)")
		}
	}

	// Create stores (use interfaces)
	var tokenStore storage.MonitoredTokenStore = memory.NewMonitoredTokenStore()
	var candleStore storage.CandleStore = memory.NewCandleStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		tokenStore = pgstore.NewMonitoredTokenStore(pool)

		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	}

	gateway := market.NewAveGateway(newProviderClient(cfg, logger))

	coll := collector.New(collector.Options{
		Gateway:    gateway,
		Candles:    candleStore,
		MaxCandles: cfg.MaxCandlesPerPair,
		Logger:     logger,
	})

	// Single-pair mode bypasses the monitored set.
	if pair != "" {
		if chain == "" {
			return fmt.Errorf("--chain is required with --pair")
		}
		result, err := coll.Collect(ctx, pair, chain, 0)
		if err != nil {
			return err
		}
		logger.Printf("Collected %s %s: fetched=%d saved=%d", pair, result.Timeframe, result.Fetched, result.Saved)
		return nil
	}

	sweep := func(ctx context.Context) error {
		tokens, err := tokenStore.GetActive(ctx)
		if err != nil {
			return fmt.Errorf("load monitored tokens: %w", err)
		}
		batch := coll.CollectForTokens(ctx, tokens, cfg.InterRequestDelay)
		logger.Printf("Sweep done: pairs=%d fetched=%d saved=%d failed=%d",
			batch.Pairs, batch.Fetched, batch.Saved, batch.Failed)
		return ctx.Err()
	}

	if once {
		return sweep(ctx)
	}

	sched := scheduler.New(logger, scheduler.Job{
		Name:       "collect-sweep",
		Interval:   cfg.CollectInterval,
		RunOnStart: true,
		Fn:         sweep,
	})

	logger.Printf("Starting collection: sweep every %s", cfg.CollectInterval)
	return sched.Run(ctx)
}

// newProviderClient builds the shared rate-limited provider client.
func newProviderClient(cfg *config.Config, logger *log.Logger) *httpclient.Client {
	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.RequestTimeout),
		httpclient.WithMaxRetries(cfg.MaxRetryCount),
		httpclient.WithLogger(logger),
	}
	if cfg.ProviderAPIKey != "" {
		opts = append(opts, httpclient.WithHeader("X-API-KEY", cfg.ProviderAPIKey))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, httpclient.WithProxy(cfg.ProxyURL))
	}
	return httpclient.New(cfg.ProviderBaseURL, cfg.RateLimitPerMinute, opts...)
}
