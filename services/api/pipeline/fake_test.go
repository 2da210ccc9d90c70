package pipeline

import (
	"context"
	"time"
)

// fakeStore is an in-memory implementation of every source interface.
type fakeStore struct {
	sites        []SiteRecord
	types        []DatasetType
	units        []MeasurementUnit
	summaries    []SummaryRecord
	wqMeasures   []WQMeasurement
	wqSummaries  []WQSummaryRecord
	restrictions []Restriction
	consentBands []ConsentBand
	consentWaps  []ConsentWap
	daily        []fakeDaily

	err   error
	calls map[string]int
}

type fakeDaily struct {
	DatasetID int
	Point
}

func (f *fakeStore) called(name string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func contains[T comparable](set []T, v T) bool {
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

func (f *fakeStore) Sites(_ context.Context, ids []string) ([]SiteRecord, error) {
	f.called("Sites")
	if f.err != nil {
		return nil, f.err
	}
	out := make([]SiteRecord, 0)
	for _, s := range f.sites {
		if contains(ids, s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DatasetTypes(_ context.Context, flt CatalogFilter) ([]DatasetType, error) {
	f.called("DatasetTypes")
	out := make([]DatasetType, 0)
	for _, t := range f.types {
		if contains(flt.Features, t.Feature) && contains(flt.MeasurementTypes, t.MeasurementType) &&
			contains(flt.CollectionTypes, t.CollectionType) && contains(flt.DataCodes, t.DataCode) &&
			contains(flt.DataProviders, t.DataProvider) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) MeasurementUnits(_ context.Context, mtypes []string) ([]MeasurementUnit, error) {
	f.called("MeasurementUnits")
	out := make([]MeasurementUnit, 0)
	for _, u := range f.units {
		if contains(mtypes, u.MeasurementType) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) NumericSummaries(_ context.Context, ids []int) ([]SummaryRecord, error) {
	f.called("NumericSummaries")
	out := make([]SummaryRecord, 0)
	for _, s := range f.summaries {
		if contains(ids, s.DatasetID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) WQMeasurements(_ context.Context, names []string) ([]WQMeasurement, error) {
	f.called("WQMeasurements")
	out := make([]WQMeasurement, 0)
	for _, m := range f.wqMeasures {
		if contains(names, m.Name) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) WQSummaries(_ context.Context, ids []int, _ []string) ([]WQSummaryRecord, error) {
	f.called("WQSummaries")
	out := make([]WQSummaryRecord, 0)
	for _, s := range f.wqSummaries {
		if contains(ids, s.MeasurementID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Restrictions(_ context.Context, r DateRange) ([]Restriction, error) {
	f.called("Restrictions")
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Restriction, 0)
	for _, rs := range f.restrictions {
		if r.Contains(rs.Date) {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (f *fakeStore) ConsentBands(_ context.Context, sites []string, r DateRange) ([]ConsentBand, error) {
	f.called("ConsentBands")
	if f.err != nil {
		return nil, f.err
	}
	out := make([]ConsentBand, 0)
	for _, b := range f.consentBands {
		if contains(sites, b.SiteID) && r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ConsentWaps(_ context.Context, consents, waps []string) ([]ConsentWap, error) {
	f.called("ConsentWaps")
	out := make([]ConsentWap, 0)
	for _, l := range f.consentWaps {
		if contains(consents, l.Consent) && contains(waps, l.Wap) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) DailyValues(_ context.Context, ids []int, sites []string, r DateRange) ([]Point, error) {
	f.called("DailyValues")
	out := make([]Point, 0)
	for _, d := range f.daily {
		if contains(ids, d.DatasetID) && contains(sites, d.SiteID) && r.Contains(d.Time) {
			out = append(out, d.Point)
		}
	}
	return out, nil
}

type fakeAllocator struct {
	records []AllocationRecord
	err     error
	got     *AllocationRequest
}

func (a *fakeAllocator) AllocationTS(_ context.Context, req AllocationRequest) ([]AllocationRecord, error) {
	a.got = &req
	if a.err != nil {
		return nil, a.err
	}
	return a.records, nil
}

type fakeSamples struct {
	points map[string][]Point
	calls  []string
}

func (s *fakeSamples) GetData(_ context.Context, site, measurement string, _ DateRange) ([]Point, error) {
	s.calls = append(s.calls, site+"/"+measurement)
	return s.points[site], nil
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustRange(from, to string) DateRange {
	r, err := NewDateRange(day(from), day(to))
	if err != nil {
		panic(err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }
