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
	defaultHilltopBaseURL = "http://wateruse.ecan.govt.nz"
	defaultHilltopHTS     = "WQAll.hts"
)

// Restriction category colours on the map.
var defaultCategoryColors = map[string]string{
	"No":          "rgb(44, 160, 44)",
	"Partial":     "rgb(255, 127, 14)",
	"Full":        "rgb(214, 39, 40)",
	"Deactivated": "rgb(31, 119, 180)",
}

// Catalog holds the fixed dictionaries the dashboard filters on.
type Catalog struct {
	SiteTypes             []string
	DefaultSiteTypes      []string
	DataSources           []string
	RestrictionCategories []string
	CategoryColors        map[string]string
	UsageMeasurementTypes []string
	RiverMarker           string
}

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL    string
	AutoMigrate    bool
	Port           int
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
	DefaultDays    int

	HilltopBaseURL string
	HilltopHTS     string
	HilltopTimeout time.Duration
	HilltopDTL     string

	AllocationURL     string
	AllocationTimeout time.Duration

	RedisURL  string
	CacheSize int
	CacheTTL  time.Duration

	SyntheticIDMode string

	Catalog Catalog
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:              8080,
		Environment:       "development",
		LogLevel:          "info",
		RequestTimeout:    30 * time.Second,
		DefaultDays:       14,
		HilltopBaseURL:    defaultHilltopBaseURL,
		HilltopHTS:        defaultHilltopHTS,
		HilltopTimeout:    30 * time.Second,
		HilltopDTL:        "none",
		AllocationTimeout: 60 * time.Second,
		CacheSize:         256,
		CacheTTL:          10 * time.Minute,
		SyntheticIDMode:   "sequential",
		Catalog: Catalog{
			SiteTypes:             []string{"LowFlow", "Residual"},
			DefaultSiteTypes:      []string{"LowFlow"},
			DataSources:           []string{"Telemetered", "Correlated from Telem", "Gauged", "Manually Calculated", "GW manual"},
			RestrictionCategories: []string{"No", "Partial", "Full", "Deactivated"},
			CategoryColors:        defaultCategoryColors,
			UsageMeasurementTypes: []string{"Abstraction"},
			RiverMarker:           "SQ",
		},
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid AUTO_MIGRATE: %s", v)
		}
		cfg.AutoMigrate = b
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if env := strings.TrimSpace(os.Getenv("ENVIRONMENT")); env != "" {
		cfg.Environment = env
	}
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		cfg.LogLevel = lvl
	}

	if daysStr := os.Getenv("DEFAULT_WINDOW_DAYS"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			cfg.DefaultDays = days
		} else {
			return cfg, fmt.Errorf("invalid DEFAULT_WINDOW_DAYS: %s", daysStr)
		}
	}

	var err error
	if cfg.RequestTimeout, err = duration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}
	if cfg.HilltopTimeout, err = duration("HILLTOP_TIMEOUT", cfg.HilltopTimeout); err != nil {
		return cfg, err
	}
	if cfg.AllocationTimeout, err = duration("ALLOCATION_TIMEOUT", cfg.AllocationTimeout); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = duration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(os.Getenv("HILLTOP_BASE_URL")); v != "" {
		cfg.HilltopBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("HILLTOP_HTS")); v != "" {
		cfg.HilltopHTS = v
	}
	if v := strings.TrimSpace(os.Getenv("HILLTOP_DTL_METHOD")); v != "" {
		if v != "none" && v != "standard" {
			return cfg, fmt.Errorf("invalid HILLTOP_DTL_METHOD: %s", v)
		}
		cfg.HilltopDTL = v
	}

	cfg.AllocationURL = strings.TrimSpace(os.Getenv("ALLOCATION_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if sizeStr := os.Getenv("CACHE_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			cfg.CacheSize = size
		} else {
			return cfg, fmt.Errorf("invalid CACHE_SIZE: %s", sizeStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("SYNTHETIC_ID_MODE")); v != "" {
		if v != "sequential" && v != "hashed" {
			return cfg, fmt.Errorf("invalid SYNTHETIC_ID_MODE: %s", v)
		}
		cfg.SyntheticIDMode = v
	}

	if v := list("SITE_TYPES"); v != nil {
		cfg.Catalog.SiteTypes = v
	}
	if v := list("DEFAULT_SITE_TYPES"); v != nil {
		cfg.Catalog.DefaultSiteTypes = v
	}
	if v := list("DATA_SOURCES"); v != nil {
		cfg.Catalog.DataSources = v
	}
	if v := list("USAGE_MEASUREMENT_TYPES"); v != nil {
		cfg.Catalog.UsageMeasurementTypes = v
	}
	if v := strings.TrimSpace(os.Getenv("RIVER_SITE_MARKER")); v != "" {
		cfg.Catalog.RiverMarker = v
	}

	return cfg, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("invalid %s: %s", key, v)
	}
	return d, nil
}

// list parses a comma-separated variable; unset or blank returns nil.
func list(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DefaultWindow is the span of the default date range.
func (c Config) DefaultWindow() time.Duration {
	return time.Duration(c.DefaultDays) * 24 * time.Hour
}
