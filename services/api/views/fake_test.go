package views

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/cache"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// fakeStore serves canned rows and counts reads per method.
type fakeStore struct {
	sites        []pipeline.SiteRecord
	types        []pipeline.DatasetType
	units        []pipeline.MeasurementUnit
	summaries    []pipeline.SummaryRecord
	restrictions []pipeline.Restriction
	bands        []pipeline.Band
	consentBands []pipeline.ConsentBand
	consentWaps  []pipeline.ConsentWap
	daily        map[int][]pipeline.Point

	err error

	// When block is set, Restrictions signals entered and waits for block
	// to close or ctx to end.
	block   chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeStore) called(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func in[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (f *fakeStore) Sites(_ context.Context, ids []string) ([]pipeline.SiteRecord, error) {
	f.called("Sites")
	out := make([]pipeline.SiteRecord, 0)
	for _, s := range f.sites {
		if in(ids, s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Restrictions(ctx context.Context, r pipeline.DateRange) ([]pipeline.Restriction, error) {
	f.called("Restrictions")
	if f.block != nil {
		f.entered <- struct{}{}
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]pipeline.Restriction, 0)
	for _, rs := range f.restrictions {
		if r.Contains(rs.Date) {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (f *fakeStore) DatasetTypes(_ context.Context, flt pipeline.CatalogFilter) ([]pipeline.DatasetType, error) {
	f.called("DatasetTypes")
	out := make([]pipeline.DatasetType, 0)
	for _, t := range f.types {
		if in(flt.MeasurementTypes, t.MeasurementType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) MeasurementUnits(_ context.Context, mtypes []string) ([]pipeline.MeasurementUnit, error) {
	f.called("MeasurementUnits")
	out := make([]pipeline.MeasurementUnit, 0)
	for _, u := range f.units {
		if in(mtypes, u.MeasurementType) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) NumericSummaries(_ context.Context, ids []int) ([]pipeline.SummaryRecord, error) {
	f.called("NumericSummaries")
	out := make([]pipeline.SummaryRecord, 0)
	for _, s := range f.summaries {
		if in(ids, s.DatasetID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) WQMeasurements(context.Context, []string) ([]pipeline.WQMeasurement, error) {
	f.called("WQMeasurements")
	return []pipeline.WQMeasurement{}, nil
}

func (f *fakeStore) WQSummaries(context.Context, []int, []string) ([]pipeline.WQSummaryRecord, error) {
	f.called("WQSummaries")
	return []pipeline.WQSummaryRecord{}, nil
}

func (f *fakeStore) DailyValues(_ context.Context, ids []int, sites []string, r pipeline.DateRange) ([]pipeline.Point, error) {
	f.called("DailyValues")
	out := make([]pipeline.Point, 0)
	for _, id := range ids {
		for _, p := range f.daily[id] {
			if in(sites, p.SiteID) && r.Contains(p.Time) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) Bands(_ context.Context, q pipeline.BandQuery) ([]pipeline.Band, error) {
	f.called("Bands")
	out := make([]pipeline.Band, 0)
	for _, b := range f.bands {
		if in(q.Sites, b.SiteID) && in(q.BandNums, b.BandNum) && q.Range.Contains(b.Date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ConsentBands(_ context.Context, sites []string, r pipeline.DateRange) ([]pipeline.ConsentBand, error) {
	f.called("ConsentBands")
	out := make([]pipeline.ConsentBand, 0)
	for _, b := range f.consentBands {
		if in(sites, b.SiteID) && r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ConsentWaps(_ context.Context, consents, waps []string) ([]pipeline.ConsentWap, error) {
	f.called("ConsentWaps")
	out := make([]pipeline.ConsentWap, 0)
	for _, l := range f.consentWaps {
		if in(consents, l.Consent) && in(waps, l.Wap) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAllocator struct {
	records []pipeline.AllocationRecord
}

func (a *fakeAllocator) AllocationTS(context.Context, pipeline.AllocationRequest) ([]pipeline.AllocationRecord, error) {
	return a.records, nil
}

type fakeSamples struct{}

func (fakeSamples) GetData(_ context.Context, site, _ string, r pipeline.DateRange) ([]pipeline.Point, error) {
	return []pipeline.Point{{SiteID: site, Time: r.From, Value: 1}}, nil
}

func testConfig() Config {
	return Config{
		DefaultWindow:    14 * 24 * time.Hour,
		CacheTTL:         time.Minute,
		SiteTypes:        []string{"LowFlow", "Residual"},
		DefaultSiteTypes: []string{"LowFlow"},
		DataSources:      []string{"Telemetered", "Gauged"},
		Categories:       []string{"No", "Partial", "Full", "Deactivated"},
		CategoryColors: map[string]string{
			"No":          "rgb(44, 160, 44)",
			"Partial":     "rgb(255, 127, 14)",
			"Full":        "rgb(214, 39, 40)",
			"Deactivated": "rgb(31, 119, 180)",
		},
		UsageMeasurementTypes: []string{"Abstraction"},
		Pipeline:              pipeline.DefaultOptions(),
	}
}

func testGraph(store *fakeStore, alloc pipeline.Allocator) (*Graph, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2019, 2, 14, 15, 30, 0, 0, time.UTC))
	g := New(store, fakeSamples{}, alloc, cache.NewLRU(64, clock), clock, testConfig(),
		observability.NewMetricsForTesting(), zap.NewNop())
	return g, clock
}

func day(s string) time.Time {
	t, err := time.Parse(pipeline.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayRange(from, to string) pipeline.DateRange {
	return pipeline.DateRange{From: day(from), To: day(to)}
}

func ptr[T any](v T) *T { return &v }
