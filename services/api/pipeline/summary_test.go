package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flowKey() DatasetKey {
	return DatasetKey{Feature: "River", MeasurementType: "Flow", CollectionType: "Recorder", DataCode: "Primary", DataProvider: "ECan"}
}

func TestMergeCatalog(t *testing.T) {
	levelKey := DatasetKey{Feature: "River", MeasurementType: "Water Level", CollectionType: "Recorder", DataCode: "Primary", DataProvider: "ECan"}
	types := []DatasetType{
		{ID: 5, DatasetKey: flowKey()},
		{ID: 5, DatasetKey: flowKey()},
		{ID: 4, DatasetKey: levelKey},
		{ID: 15, DatasetKey: DatasetKey{Feature: "Atmosphere", MeasurementType: "Precipitation"}},
	}
	units := []MeasurementUnit{
		{MeasurementType: "Flow", Units: "m**3/s"},
		{MeasurementType: "Water Level", Units: "m"},
		{MeasurementType: "Temperature", Units: "C"},
	}

	got := MergeCatalog(types, units)
	want := []Dataset{
		{ID: 5, DatasetKey: flowKey(), Units: "m**3/s", Name: "River - Flow - Recorder - Primary - ECan (m**3/s)"},
		{ID: 4, DatasetKey: levelKey, Units: "m", Name: "River - Water Level - Recorder - Primary - ECan (m)"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeCatalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCatalog_RejectsSyntheticRange(t *testing.T) {
	store := &fakeStore{
		types: []DatasetType{{ID: SyntheticIDBase + 1, DatasetKey: flowKey()}},
		units: []MeasurementUnit{{MeasurementType: "Flow", Units: "m**3/s"}},
	}
	_, err := LoadCatalog(context.Background(), store, CatalogFilter{})
	require.ErrorIs(t, err, ErrIDOverlap)
}

func summaryStore() *fakeStore {
	return &fakeStore{
		types: []DatasetType{{ID: 5, DatasetKey: flowKey()}},
		units: []MeasurementUnit{{MeasurementType: "Flow", Units: "m**3/s"}, {MeasurementType: "Nitrate", Units: "mg/L"}},
		summaries: []SummaryRecord{
			{SiteID: "69607", DatasetID: 5, Min: ptr(1.5), Mean: ptr(4.25), Max: ptr(12.0), Count: ptr(365), FromDate: day("2019-01-01"), ToDate: day("2019-12-31")},
			{SiteID: "69505", DatasetID: 5, FromDate: day("2020-01-01"), ToDate: day("2020-06-30")},
		},
		wqMeasures: []WQMeasurement{{ID: 7, Name: "Nitrate"}, {ID: 8, Name: "E. coli"}},
		wqSummaries: []WQSummaryRecord{
			{SiteID: "SQ31045", MeasurementID: 7, Units: "mg/L", FromDate: day("2010-01-01"), ToDate: day("2020-01-01")},
			{SiteID: "BX23/0035", MeasurementID: 7, Units: "mg/L", FromDate: day("2012-01-01"), ToDate: day("2019-01-01")},
			{SiteID: "sq00001", MeasurementID: 8, Units: "cfu", FromDate: day("2015-01-01"), ToDate: day("2016-01-01")},
			{SiteID: "SQ31046", MeasurementID: 7, Units: "mg/L", FromDate: day("2011-01-01"), ToDate: day("2018-01-01")},
		},
	}
}

func TestAggregateSummaries_WaterQuality(t *testing.T) {
	store := summaryStore()
	f := CatalogFilter{MeasurementTypes: []string{"Flow", "Nitrate", "E. coli"}}

	rows, err := AggregateSummaries(context.Background(), store, f, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rows, 6)

	ids := make(map[DatasetKey]int)
	for _, r := range rows {
		if r.Dataset.ID < SyntheticIDBase {
			assert.Equal(t, 5, r.Dataset.ID)
			continue
		}
		assert.Equal(t, "Manual Field", r.Dataset.CollectionType)
		assert.Equal(t, "Primary", r.Dataset.DataCode)
		assert.Equal(t, "ECan", r.Dataset.DataProvider)
		assert.Nil(t, r.Min)
		assert.Nil(t, r.Count)
		if prev, ok := ids[r.Dataset.DatasetKey]; ok {
			assert.Equal(t, prev, r.Dataset.ID)
		}
		ids[r.Dataset.DatasetKey] = r.Dataset.ID
	}

	river := DatasetKey{Feature: "River", MeasurementType: "Nitrate", CollectionType: "Manual Field", DataCode: "Primary", DataProvider: "ECan"}
	aquifer := river
	aquifer.Feature = "Aquifer"
	ecoli := river
	ecoli.MeasurementType = "E. coli"

	// First-seen order of the water-quality rows: river nitrate, aquifer nitrate, river E. coli.
	assert.Equal(t, map[DatasetKey]int{river: 10000, aquifer: 10001, ecoli: 10002}, ids)
}

func TestAggregateSummaries_SyntheticIDsDistinct(t *testing.T) {
	for _, assigner := range []IDAssigner{SequentialIDs{Base: SyntheticIDBase}, HashedIDs{Base: SyntheticIDBase}} {
		opts := DefaultOptions()
		opts.SyntheticIDs = assigner

		rows, err := AggregateSummaries(context.Background(), summaryStore(), CatalogFilter{MeasurementTypes: []string{"Nitrate", "E. coli"}}, opts)
		require.NoError(t, err)

		byID := make(map[int]DatasetKey)
		for _, r := range rows {
			require.GreaterOrEqual(t, r.Dataset.ID, SyntheticIDBase)
			if k, ok := byID[r.Dataset.ID]; ok {
				assert.Equal(t, k, r.Dataset.DatasetKey, "id %d shared by distinct keys", r.Dataset.ID)
			}
			byID[r.Dataset.ID] = r.Dataset.DatasetKey
		}
		assert.Len(t, byID, 3)
	}
}

func TestHashedIDs_StableAcrossCalls(t *testing.T) {
	a := DatasetKey{Feature: "River", MeasurementType: "Nitrate"}
	b := DatasetKey{Feature: "Aquifer", MeasurementType: "Nitrate"}
	h := HashedIDs{Base: SyntheticIDBase}

	first := h.Assign([]DatasetKey{a, b})
	second := h.Assign([]DatasetKey{b, a})
	assert.Equal(t, first[a], second[a])
	assert.Equal(t, first[b], second[b])
}

func TestHashedIDs_ResolvesCollisions(t *testing.T) {
	keys := []DatasetKey{{Feature: "a"}, {Feature: "b"}, {Feature: "c"}}
	ids := HashedIDs{Base: SyntheticIDBase, Span: 1}.Assign(keys)

	seen := make(map[int]bool)
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
		assert.GreaterOrEqual(t, id, SyntheticIDBase)
	}
	assert.Len(t, seen, 3)
}

func TestAggregateSummaries_NoWaterQualityMeasurements(t *testing.T) {
	store := summaryStore()
	rows, err := AggregateSummaries(context.Background(), store, CatalogFilter{MeasurementTypes: []string{"Flow"}}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "69505", rows[0].SiteID)
	assert.Equal(t, "River - Flow - Recorder - Primary - ECan (m**3/s)", rows[0].Dataset.Name)
	assert.Zero(t, store.calls["WQSummaries"])
}

func TestAggregateSummaries_DropsInvertedIntervals(t *testing.T) {
	store := summaryStore()
	store.summaries = append(store.summaries, SummaryRecord{SiteID: "bad", DatasetID: 5, FromDate: day("2020-02-01"), ToDate: day("2020-01-01")})

	rows, err := AggregateSummaries(context.Background(), store, CatalogFilter{MeasurementTypes: []string{"Flow"}}, Options{})
	require.NoError(t, err)
	for _, r := range rows {
		assert.NotEqual(t, "bad", r.SiteID)
	}
}

func TestAggregateSummaries_EmptyCatalogSkipsNumeric(t *testing.T) {
	store := summaryStore()
	rows, err := AggregateSummaries(context.Background(), store, CatalogFilter{MeasurementTypes: []string{"Turbidity"}}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, store.calls["NumericSummaries"])
}

func TestJoinAndSelectSummaries(t *testing.T) {
	sites := []Site{{ID: "69607", Name: "Waimak"}, {ID: "SQ31045"}}
	rows, err := AggregateSummaries(context.Background(), summaryStore(), CatalogFilter{MeasurementTypes: []string{"Flow", "Nitrate"}}, DefaultOptions())
	require.NoError(t, err)

	joined := JoinSites(sites, rows)
	require.Len(t, joined, 2)

	sel := SelectSummaries(joined, SummarySelection{
		CatalogFilter: CatalogFilter{Features: []string{"River"}, MeasurementTypes: []string{"Flow"}},
		Range:         mustRange("2019-06-01", "2019-06-30"),
	})
	require.Len(t, sel, 1)
	assert.Equal(t, "69607", sel[0].ID)

	none := SelectSummaries(joined, SummarySelection{Range: mustRange("2021-01-01", "2021-02-01")})
	assert.Empty(t, none)
}

func TestFormatStat(t *testing.T) {
	assert.Equal(t, "nan", FormatStat(nil))
	assert.Equal(t, "2.0", FormatStat(ptr(2.0)))
	assert.Equal(t, "1.235", FormatStat(ptr(1.23456)))
	assert.Equal(t, "0.002", FormatStat(ptr(0.0025)))
	assert.Equal(t, "-4.25", FormatStat(ptr(-4.25)))
}
