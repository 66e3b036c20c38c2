/*
config.go - Server configuration

PURPOSE:
  Resolves the server's runtime configuration from command-line flags and
  environment variables. Environment variables take precedence over
  flags, so deployments can override a baked-in default without touching
  the invocation.

SOURCES:
  -addr / ADDRESS              Listen address (default :8080)
  -db / DATABASE_PATH          SQLite database path (":memory:" works)
  -accrual-interval /
    ACCRUAL_CHECK_INTERVAL     Scheduler re-check interval
  -cors-origins / CORS_ORIGINS Comma-separated allowed origins
*/
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Address         string        `env:"ADDRESS"`
	DatabasePath    string        `env:"DATABASE_PATH"`
	AccrualInterval time.Duration `env:"ACCRUAL_CHECK_INTERVAL"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`
}

// loadConfig parses flags first, then lets the environment override.
func loadConfig() (Config, error) {
	cfg := Config{}

	flag.StringVar(&cfg.Address, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&cfg.DatabasePath, "db", "leave.db", "SQLite database path")
	flag.DurationVar(&cfg.AccrualInterval, "accrual-interval", time.Hour,
		"how often the accrual scheduler re-checks (the pass itself runs at most once per day)")
	origins := flag.String("cors-origins", "http://localhost:5173,http://localhost:8080",
		"comma-separated allowed CORS origins")
	flag.Parse()

	cfg.CORSOrigins = strings.Split(*origins, ",")

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
