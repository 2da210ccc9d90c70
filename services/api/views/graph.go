// Package views derives every dashboard view from the pipeline. Each view is
// a node whose result is memoised under a fingerprint of its inputs, so a
// change to one input recomputes only the views that depend on it.
package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/cache"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// ErrAllocationUnavailable is returned by AllocationUsage when no
// allocation service is configured.
var ErrAllocationUnavailable = errors.New("allocation service not configured")

// Sources is everything the views read from the database.
type Sources interface {
	pipeline.LowFlowSource
	pipeline.SummarySource
	pipeline.AllocationSource
	pipeline.BandSource
}

// Config holds the dictionaries and policies the views are built with.
type Config struct {
	DefaultWindow  time.Duration
	CacheTTL       time.Duration
	ComputeTimeout time.Duration

	SiteTypes             []string
	DefaultSiteTypes      []string
	DataSources           []string
	Categories            []string
	CategoryColors        map[string]string
	UsageMeasurementTypes []string

	Pipeline pipeline.Options
}

// Graph evaluates and memoises dashboard views.
type Graph struct {
	src     Sources
	samples pipeline.SampleSource
	alloc   pipeline.Allocator
	cache   cache.Backend
	clock   clockwork.Clock
	cfg     Config
	metrics *observability.Metrics
	logger  *zap.Logger

	group singleflight.Group
}

// New builds a Graph. alloc may be nil, in which case AllocationUsage
// returns ErrAllocationUnavailable.
func New(src Sources, samples pipeline.SampleSource, alloc pipeline.Allocator, backend cache.Backend,
	clock clockwork.Clock, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Graph {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Pipeline.Logger == nil {
		cfg.Pipeline.Logger = logger
	}
	return &Graph{
		src:     src,
		samples: samples,
		alloc:   alloc,
		cache:   backend,
		clock:   clock,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Config returns the configuration the graph was built with.
func (g *Graph) Config() Config {
	return g.cfg
}

// Ping checks the memo cache when its backend holds a remote connection.
func (g *Graph) Ping(ctx context.Context) error {
	p, ok := g.cache.(cache.Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("view cache: %w", err)
	}
	return nil
}

// DefaultRange is the DefaultWindow ending today.
func (g *Graph) DefaultRange() pipeline.DateRange {
	now := g.clock.Now()
	return pipeline.DateRange{
		From: pipeline.Day(now.Add(-g.cfg.DefaultWindow)),
		To:   pipeline.Day(now),
	}
}

// memo returns the cached result of view name for inputs, computing and
// storing it on a miss. Concurrent misses for the same key share one
// computation, which runs detached from any caller and bounded by
// ComputeTimeout; a caller whose ctx ends stops waiting without affecting the
// others. Cache failures are logged and treated as misses.
func memo[T any](ctx context.Context, g *Graph, name string, compute func(context.Context) (T, error), inputs ...any) (T, error) {
	var zero T

	key, err := cache.Fingerprint(name, inputs...)
	if err != nil {
		return zero, err
	}

	if raw, ok, err := g.cache.Get(ctx, key); err != nil {
		g.metrics.ViewCache.WithLabelValues(name, "error").Inc()
		g.logger.Warn("view cache read failed", zap.String("view", name), zap.Error(err))
	} else if ok {
		var v T
		decodeErr := json.Unmarshal(raw, &v)
		if decodeErr == nil {
			g.metrics.ViewCache.WithLabelValues(name, "hit").Inc()
			return v, nil
		}
		g.logger.Warn("discarding undecodable cache entry", zap.String("view", name), zap.Error(decodeErr))
	}
	g.metrics.ViewCache.WithLabelValues(name, "miss").Inc()

	ch := g.group.DoChan(key, func() (any, error) {
		// Shared by every caller waiting on key, so no single caller's
		// cancellation may end it.
		cctx := context.WithoutCancel(ctx)
		if g.cfg.ComputeTimeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(cctx, g.cfg.ComputeTimeout)
			defer cancel()
		}

		start := time.Now()
		out, err := compute(cctx)
		g.metrics.ViewDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			g.metrics.ViewRuns.WithLabelValues(name, "error").Inc()
			return nil, err
		}
		g.metrics.ViewRuns.WithLabelValues(name, "success").Inc()

		raw, err := json.Marshal(out)
		if err != nil {
			g.logger.Warn("view result not cacheable", zap.String("view", name), zap.Error(err))
			return out, nil
		}
		if err := g.cache.Set(cctx, key, raw, g.cfg.CacheTTL); err != nil {
			g.metrics.ViewCache.WithLabelValues(name, "error").Inc()
			g.logger.Warn("view cache write failed", zap.String("view", name), zap.Error(err))
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
