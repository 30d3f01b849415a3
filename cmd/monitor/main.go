package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"dexwatch/internal/config"
	"dexwatch/internal/domain"
	"dexwatch/internal/httpclient"
	"dexwatch/internal/market"
	"dexwatch/internal/monitor"
	"dexwatch/internal/observability"
	"dexwatch/internal/scheduler"
	"dexwatch/internal/storage"
	"dexwatch/internal/storage/memory"
	"dexwatch/internal/storage/migrations"
	pgstore "dexwatch/internal/storage/postgres"
)

func main() {
	// Parse flags
	envPath := flag.String("env", ".env", "Path to .env file (missing file is ignored)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	once := flag.Bool("once", false, "Run a single tick and exit")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[monitor] ", log.LstdFlags|log.Lshortfile)

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

	err = run(ctx, logger, cfg, *useMemory, *once)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// run wires storage, the provider gateway and the engine, then drives
// the monitoring loop until ctx is cancelled.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config, useMemory, once bool) error {
	// Require POSTGRES_DSN unless --use-memory is explicitly set
	if !useMemory && cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var tokenStore storage.MonitoredTokenStore = memory.NewMonitoredTokenStore()
	var alertStore storage.PriceAlertStore = memory.NewPriceAlertStore()
	var candidateStore storage.PotentialTokenStore = memory.NewPotentialTokenStore()
	var configStore storage.ConfigStore = memory.NewConfigStore()

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
		alertStore = pgstore.NewPriceAlertStore(pool)
		candidateStore = pgstore.NewPotentialTokenStore(pool)
		configStore = pgstore.NewConfigStore(pool)
	}

	applyConfigOverrides(ctx, cfg, configStore, logger)

	gateway := market.NewAveGateway(newProviderClient(cfg, logger))

	thresholds := cfg.AlertThresholds
	if len(thresholds) == 0 && cfg.DropThreshold > 0 {
		thresholds = []float64{cfg.DropThreshold}
	}

	engine := monitor.New(monitor.Options{
		Gateway:           gateway,
		Tokens:            tokenStore,
		Alerts:            alertStore,
		AlertThresholds:   thresholds,
		MinMarketCap:      decimal.NewFromFloat(cfg.MinMarketCap),
		MinLiquidity:      decimal.NewFromFloat(cfg.MinLiquidity),
		InterRequestDelay: cfg.InterRequestDelay,
		Logger:            logger,
	})

	enroller := monitor.NewEnroller(monitor.EnrollerOptions{
		Tokens:          tokenStore,
		Candidates:      candidateStore,
		AlertThresholds: thresholds,
		Logger:          logger,
	})

	// Candidates promote before the tick so a fresh enrollment is
	// checked in the same pass.
	tick := func(ctx context.Context) error {
		if n, err := enroller.EnrollPending(ctx); err != nil {
			logger.Printf("Enroll pending failed: %v", err)
		} else if n > 0 {
			logger.Printf("Enrolled %d pending candidates", n)
		}
		_, err := engine.Tick(ctx)
		return err
	}

	if once {
		return tick(ctx)
	}

	sched := scheduler.New(logger, scheduler.Job{
		Name:       "monitor-tick",
		Interval:   cfg.TickInterval,
		RunOnStart: true,
		Fn:         tick,
	})

	logger.Printf("Starting monitoring: tick every %s", cfg.TickInterval)
	return sched.Run(ctx)
}

// applyConfigOverrides lets persisted monitor_config rows shadow env
// defaults at startup. Malformed values keep the env default.
func applyConfigOverrides(ctx context.Context, cfg *config.Config, store storage.ConfigStore, logger *log.Logger) {
	entries, err := store.GetAll(ctx)
	if err != nil {
		logger.Printf("Load config overrides: %v", err)
		return
	}

	for _, e := range entries {
		switch e.Key {
		case domain.ConfigKeyAlertThresholds:
			if ts := config.ParseThresholds(e.Value); len(ts) > 0 {
				cfg.AlertThresholds = ts
			}
		case domain.ConfigKeyMinMarketCap:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil && v >= 0 {
				cfg.MinMarketCap = v
			}
		case domain.ConfigKeyMinLiquidity:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil && v >= 0 {
				cfg.MinLiquidity = v
			}
		case domain.ConfigKeyTickInterval:
			if v, err := strconv.Atoi(e.Value); err == nil && v > 0 {
				cfg.TickInterval = time.Duration(v) * time.Minute
			}
		case domain.ConfigKeyInterRequestDelay:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil && v > 0 {
				cfg.InterRequestDelay = time.Duration(v * float64(time.Second))
			}
		}
	}

	if len(entries) > 0 {
		logger.Printf("Applied %d config overrides", len(entries))
	}
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
