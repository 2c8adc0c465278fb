package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	StorefrontAddress string
	TokenSecret       string
	PointsExpiry      time.Duration
	RetryPollInterval time.Duration
	WorkerPoolSize    int
	RetryBatchSize    int
	RetryMaxAttempts  int
	StatsSchedule     string
	ShutdownTimeout   time.Duration
	LogLevel          string
}

const (
	defaultRunAddress        = ":8080"
	defaultTokenSecret       = "change-me-in-production"
	defaultPointsExpiry      = 90 * 24 * time.Hour
	defaultRetryPollInterval = 3 * time.Second
	defaultWorkerPoolSize    = 4
	defaultRetryBatchSize    = 32
	defaultRetryMaxAttempts  = 10
	defaultStatsSchedule     = "0 */5 * * * *"
	defaultShutdownTimeout   = 10 * time.Second
	defaultLogLevel          = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		StorefrontAddress: getString(lookup, "STOREFRONT_ADDRESS", ""),
		TokenSecret:       getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		PointsExpiry:      getDuration(lookup, "POINTS_EXPIRY", defaultPointsExpiry),
		RetryPollInterval: getDuration(lookup, "RETRY_POLL_INTERVAL", defaultRetryPollInterval),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		RetryBatchSize:    getInt(lookup, "RETRY_BATCH_SIZE", defaultRetryBatchSize),
		RetryMaxAttempts:  getInt(lookup, "RETRY_MAX_ATTEMPTS", defaultRetryMaxAttempts),
		StatsSchedule:     getString(lookup, "STATS_SCHEDULE", defaultStatsSchedule),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("rewardengine", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		expiryStr          = cfg.PointsExpiry.String()
		pollIntervalStr    = cfg.RetryPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.StorefrontAddress, "s", cfg.StorefrontAddress, "Storefront base URL for order snapshots")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing API tokens")
	fs.StringVar(&expiryStr, "points-expiry", expiryStr, "Lifetime of earned points")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between retry queue polls")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent retry workers")
	fs.IntVar(&cfg.RetryBatchSize, "poll-batch", cfg.RetryBatchSize, "Maximum jobs per polling batch")
	fs.IntVar(&cfg.RetryMaxAttempts, "max-attempts", cfg.RetryMaxAttempts, "Attempts before a queued accrual is given up")
	fs.StringVar(&cfg.StatsSchedule, "stats-schedule", cfg.StatsSchedule, "Cron spec (with seconds) of the ledger stats job")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.PointsExpiry, err = time.ParseDuration(expiryStr); err != nil {
		return nil, fmt.Errorf("invalid points expiry: %w", err)
	}

	if cfg.RetryPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = strings.TrimSpace(string(content))
	}

	if cfg.PointsExpiry <= 0 {
		cfg.PointsExpiry = defaultPointsExpiry
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RetryBatchSize <= 0 {
		cfg.RetryBatchSize = defaultRetryBatchSize
	}

	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = defaultRetryMaxAttempts
	}

	if cfg.RetryPollInterval <= 0 {
		cfg.RetryPollInterval = defaultRetryPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if strings.TrimSpace(cfg.StatsSchedule) == "" {
		cfg.StatsSchedule = defaultStatsSchedule
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.StorefrontAddress == "" {
		return nil, fmt.Errorf("storefront address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
