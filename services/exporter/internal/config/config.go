package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultOutputDir      = "exports"
	defaultWindowDays     = 14
	defaultRequestTimeout = 2 * time.Minute
)

// Config holds runtime configuration for the snapshot exporter.
type Config struct {
	DatabaseURL    string
	Environment    string
	LogLevel       string
	OutputDir      string
	WindowDays     int
	From           *time.Time
	To             *time.Time
	RequestTimeout time.Duration
	DryRun         bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		Environment:    "development",
		LogLevel:       "info",
		OutputDir:      defaultOutputDir,
		WindowDays:     defaultWindowDays,
		RequestTimeout: defaultRequestTimeout,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if v := strings.TrimSpace(os.Getenv("ENVIRONMENT")); v != "" {
		cfg.Environment = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPORT_DIR")); v != "" {
		cfg.OutputDir = v
	}

	if v := strings.TrimSpace(os.Getenv("EXPORT_WINDOW_DAYS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid EXPORT_WINDOW_DAYS: %s", v)
		}
		cfg.WindowDays = n
	}

	var err error
	if cfg.From, err = day("EXPORT_FROM"); err != nil {
		return cfg, err
	}
	if cfg.To, err = day("EXPORT_TO"); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(os.Getenv("EXPORT_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid EXPORT_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

func day(key string) (*time.Time, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &t, nil
}
