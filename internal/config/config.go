// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath            string
	SyncInterval      time.Duration
	HTTPTimeout       time.Duration
	PageSize          int
	RequestsPerSecond float64
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional with defaults: SUBWAVE_DB_PATH (subwave.db),
// SUBWAVE_SYNC_INTERVAL (1h), SUBWAVE_HTTP_TIMEOUT (30s),
// SUBWAVE_PAGE_SIZE (500), SUBWAVE_REQUESTS_PER_SECOND (5).
func Load() (*Config, error) {
	dbPath := "subwave.db"
	if v, ok := os.LookupEnv("SUBWAVE_DB_PATH"); ok {
		dbPath = v
	}

	syncInterval := time.Hour
	if v, ok := os.LookupEnv("SUBWAVE_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SUBWAVE_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		syncInterval = parsed
	}

	httpTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("SUBWAVE_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SUBWAVE_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		httpTimeout = parsed
	}

	pageSize := 500
	if v, ok := os.LookupEnv("SUBWAVE_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("SUBWAVE_PAGE_SIZE must be a positive integer, got %q", v)
		}
		pageSize = parsed
	}

	requestsPerSecond := 5.0
	if v, ok := os.LookupEnv("SUBWAVE_REQUESTS_PER_SECOND"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("SUBWAVE_REQUESTS_PER_SECOND must be a positive number, got %q", v)
		}
		requestsPerSecond = parsed
	}

	return &Config{
		DBPath:            dbPath,
		SyncInterval:      syncInterval,
		HTTPTimeout:       httpTimeout,
		PageSize:          pageSize,
		RequestsPerSecond: requestsPerSecond,
	}, nil
}
