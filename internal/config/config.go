// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr    string
	DatabasePath  string
	LogLevel      string
	PollInterval  time.Duration
	ScrapeTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/renttrack.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	pollSecs, err := intEnv("POLL_INTERVAL_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	scrapeSecs, err := intEnv("SCRAPE_TIMEOUT_SECONDS", 20)
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:    addr,
		DatabasePath:  dbPath,
		LogLevel:      logLevel,
		PollInterval:  time.Duration(pollSecs) * time.Second,
		ScrapeTimeout: time.Duration(scrapeSecs) * time.Second,
	}, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}
