package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/db"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/logger"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/exporter/internal/config"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/exporter/internal/snapshot"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("exporter failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logr, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logr.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	r, err := snapshot.Range(time.Now().UTC(), cfg.WindowDays, cfg.From, cfg.To)
	if err != nil {
		return err
	}

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := snapshot.SiteSummary(ctx, store, r)
	if err != nil {
		return err
	}
	logr.Info("built site summary", zap.String("range", r.String()), zap.Int("rows", f.Rows), zap.Int("bytes", len(f.Data)))

	if cfg.DryRun {
		logr.Info("dry-run: skipping write", zap.String("file", f.Name))
		return nil
	}

	path, err := snapshot.Write(cfg.OutputDir, f)
	if err != nil {
		return err
	}
	logr.Info("wrote site summary", zap.String("path", path))
	return nil
}
