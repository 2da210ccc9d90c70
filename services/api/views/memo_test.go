package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/cache"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

func TestGraph_CachedResultsMatchComputed(t *testing.T) {
	store := usageStore()
	store.bands = bandStore().bands
	store.summaries[0].Min = ptr(0.1234)
	store.summaries[0].Mean = ptr(2.5)
	store.summaries[0].Count = ptr(365)
	alloc := &fakeAllocator{records: []pipeline.AllocationRecord{
		{Consent: "C1", Wap: "W1", Date: day("2019-02-13"), Allocation: 172800},
	}}
	g, _ := testGraph(store, alloc)
	ctx := context.Background()
	r := dayRange("2019-02-01", "2019-02-14")

	tests := []struct {
		name string
		view func() (any, error)
	}{
		{"site summary", func() (any, error) { return g.SiteSummary(ctx, r) }},
		{"map markers", func() (any, error) { return g.MapMarkers(ctx, r, MapFilter{}) }},
		{"summaries", func() (any, error) { return g.summaries(ctx, pipeline.CatalogFilter{}) }},
		{"time-series summary", func() (any, error) { return g.TimeSeriesSummary(ctx, pipeline.CatalogFilter{}) }},
		{"allocation usage", func() (any, error) { return g.AllocationUsage(ctx, r, []string{"S1"}) }},
		{"band chart", func() (any, error) { return g.BandChart(ctx, []string{"S1"}, []int{1, 2}, r) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			computed, err := tt.view()
			require.NoError(t, err)
			cached, err := tt.view()
			require.NoError(t, err)

			if diff := cmp.Diff(computed, cached); diff != "" {
				t.Errorf("cached result differs (-computed +cached):\n%s", diff)
			}
		})
	}

	rows, err := g.SiteSummary(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, row.Site.ID, row.Restriction.SiteID)
	}
	assert.Equal(t, 1, store.count("Restrictions"))
}

func TestGraph_SharedComputationOutlivesCancelledCaller(t *testing.T) {
	store := lowFlowStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 2)
	g, _ := testGraph(store, nil)
	r := dayRange("2019-02-01", "2019-02-14")

	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.SiteSummary(first, r)
		firstErr <- err
	}()
	<-store.entered

	type result struct {
		rows []pipeline.SiteRestriction
		err  error
	}
	second := make(chan result, 1)
	go func() {
		rows, err := g.SiteSummary(context.Background(), r)
		second <- result{rows, err}
	}()
	// Let the second caller join the in-flight computation.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(store.block)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Len(t, res.rows, 5)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestGraph_ComputeTimeout(t *testing.T) {
	store := lowFlowStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	defer close(store.block)

	g, _ := testGraph(store, nil)
	g.cfg.ComputeTimeout = 10 * time.Millisecond

	_, err := g.SiteSummary(context.Background(), dayRange("2019-02-01", "2019-02-14"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type pingBackend struct {
	fakeBackend
	err error
}

func (p pingBackend) Ping(context.Context) error { return p.err }

type fakeBackend struct{}

func (fakeBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (fakeBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

func TestGraph_Ping(t *testing.T) {
	newGraph := func(b cache.Backend) *Graph {
		return New(&fakeStore{}, nil, nil, b, nil, testConfig(), observability.NewMetricsForTesting(), zap.NewNop())
	}

	assert.NoError(t, newGraph(fakeBackend{}).Ping(context.Background()))
	assert.NoError(t, newGraph(pingBackend{}).Ping(context.Background()))

	err := newGraph(pingBackend{err: errors.New("connection refused")}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view cache")
}
