package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/allocation"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/cache"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/config"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/db"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/hilltop"
	httpserver "github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/http"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/logger"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logr, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logr *zap.Logger) error {
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connection: %w", err)
	}
	defer store.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("schema applied")
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	backend, closeCache, err := newCache(ctx, cfg, clock, logr)
	if err != nil {
		return err
	}
	defer closeCache()

	samples := hilltop.NewClient(cfg.HilltopBaseURL, cfg.HilltopHTS, hilltop.DTLMethod(cfg.HilltopDTL),
		cfg.HilltopTimeout, metrics, logr.Named("hilltop"))

	var alloc pipeline.Allocator
	if cfg.AllocationURL != "" {
		alloc = allocation.NewClient(cfg.AllocationURL, cfg.AllocationTimeout, metrics, logr.Named("allocation"))
	} else {
		logr.Warn("ALLOCATION_URL not set; allocation usage disabled")
	}

	opts := pipeline.DefaultOptions()
	opts.RiverMarker = cfg.Catalog.RiverMarker
	opts.Logger = logr.Named("pipeline")
	if cfg.SyntheticIDMode == "hashed" {
		opts.SyntheticIDs = pipeline.HashedIDs{Base: pipeline.SyntheticIDBase}
	}

	graph := views.New(store, samples, alloc, backend, clock, views.Config{
		DefaultWindow:         cfg.DefaultWindow(),
		CacheTTL:              cfg.CacheTTL,
		ComputeTimeout:        cfg.RequestTimeout,
		SiteTypes:             cfg.Catalog.SiteTypes,
		DefaultSiteTypes:      cfg.Catalog.DefaultSiteTypes,
		DataSources:           cfg.Catalog.DataSources,
		Categories:            cfg.Catalog.RestrictionCategories,
		CategoryColors:        cfg.Catalog.CategoryColors,
		UsageMeasurementTypes: cfg.Catalog.UsageMeasurementTypes,
		Pipeline:              opts,
	}, metrics, logr.Named("views"))

	srv := httpserver.New(cfg, store, graph, metrics, logr.Named("http"))
	logr.Info("REST API listening", zap.String("addr", cfg.ListenAddr()), zap.String("environment", cfg.Environment))

	return srv.Run(ctx)
}

// newCache picks Redis when REDIS_URL is set, otherwise an in-process LRU.
func newCache(ctx context.Context, cfg config.Config, clock clockwork.Clock, logr *zap.Logger) (cache.Backend, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewLRU(cfg.CacheSize, clock), func() {}, nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logr.Info("using redis view cache")
	return r, func() { _ = r.Close() }, nil
}
