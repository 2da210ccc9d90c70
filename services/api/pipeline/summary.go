package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Summary is the per-site statistics of one dataset over its validity interval.
type Summary struct {
	SiteID   string    `json:"site_id"`
	Dataset  Dataset   `json:"dataset"`
	Min      *float64  `json:"min"`
	Median   *float64  `json:"median"`
	Mean     *float64  `json:"mean"`
	Max      *float64  `json:"max"`
	Count    *int      `json:"count"`
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}

// AggregateSummaries unions the numeric summaries of catalog datasets
// matching f with the water-quality summaries whose measurement name is in
// f.MeasurementTypes. Water-quality combinations are numbered by
// opts.SyntheticIDs.
func AggregateSummaries(ctx context.Context, src SummarySource, f CatalogFilter, opts Options) ([]Summary, error) {
	opts = opts.withDefaults()

	datasets, err := LoadCatalog(ctx, src, f)
	if err != nil {
		return nil, err
	}

	numeric, err := numericSummaries(ctx, src, datasets)
	if err != nil {
		return nil, err
	}

	wq, err := waterQualitySummaries(ctx, src, f, opts)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(numeric)+len(wq))
	for _, s := range append(numeric, wq...) {
		if s.ToDate.Before(s.FromDate) {
			opts.Logger.Warn("dropping summary with inverted interval",
				zap.String("site", s.SiteID),
				zap.Int("dataset", s.Dataset.ID),
				zap.Time("from", s.FromDate),
				zap.Time("to", s.ToDate),
			)
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		if out[i].Dataset.ID != out[j].Dataset.ID {
			return out[i].Dataset.ID < out[j].Dataset.ID
		}
		return out[i].FromDate.Before(out[j].FromDate)
	})
	return out, nil
}

func numericSummaries(ctx context.Context, src SummarySource, datasets []Dataset) ([]Summary, error) {
	if len(datasets) == 0 {
		return nil, nil
	}

	byID := make(map[int][]Dataset, len(datasets))
	ids := make([]int, 0, len(datasets))
	for _, d := range datasets {
		byID[d.ID] = append(byID[d.ID], d)
		ids = append(ids, d.ID)
	}

	records, err := src.NumericSummaries(ctx, uniqueInts(ids))
	if err != nil {
		return nil, fmt.Errorf("load numeric summaries: %w", err)
	}

	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		for _, d := range byID[rec.DatasetID] {
			out = append(out, Summary{
				SiteID:   rec.SiteID,
				Dataset:  d,
				Min:      rec.Min,
				Median:   rec.Median,
				Mean:     rec.Mean,
				Max:      rec.Max,
				Count:    rec.Count,
				FromDate: Day(rec.FromDate),
				ToDate:   Day(rec.ToDate),
			})
		}
	}
	return out, nil
}

func waterQualitySummaries(ctx context.Context, src SummarySource, f CatalogFilter, opts Options) ([]Summary, error) {
	measurements, err := src.WQMeasurements(ctx, f.MeasurementTypes)
	if err != nil {
		return nil, fmt.Errorf("load water quality measurements: %w", err)
	}
	if len(measurements) == 0 {
		return nil, nil
	}

	names := make(map[int][]string, len(measurements))
	ids := make([]int, 0, len(measurements))
	for _, m := range measurements {
		names[m.ID] = append(names[m.ID], m.Name)
		ids = append(ids, m.ID)
	}

	records, err := src.WQSummaries(ctx, uniqueInts(ids), opts.WQDataTypes)
	if err != nil {
		return nil, fmt.Errorf("load water quality summaries: %w", err)
	}

	marker := strings.ToLower(opts.RiverMarker)
	rows := make([]Summary, 0, len(records))
	keys := make([]DatasetKey, 0)
	seen := make(map[DatasetKey]struct{})
	for _, rec := range records {
		feature := "Aquifer"
		if marker != "" && strings.Contains(strings.ToLower(rec.SiteID), marker) {
			feature = "River"
		}
		for _, name := range names[rec.MeasurementID] {
			key := DatasetKey{
				Feature:         feature,
				MeasurementType: name,
				CollectionType:  opts.WQCollectionType,
				DataCode:        opts.WQDataCode,
				DataProvider:    opts.WQDataProvider,
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
			rows = append(rows, Summary{
				SiteID:   rec.SiteID,
				Dataset:  Dataset{DatasetKey: key, Units: rec.Units, Name: DatasetName(key, rec.Units)},
				FromDate: Day(rec.FromDate),
				ToDate:   Day(rec.ToDate),
			})
		}
	}

	assigned := opts.SyntheticIDs.Assign(keys)
	for i := range rows {
		rows[i].Dataset.ID = assigned[rows[i].Dataset.DatasetKey]
	}
	return rows, nil
}

// SiteSummary is a summary row joined to its site.
type SiteSummary struct {
	Site
	Summary
}

// JoinSites inner-joins summaries to sites on the site id.
func JoinSites(sites []Site, summaries []Summary) []SiteSummary {
	idx := siteIndex(sites)
	out := make([]SiteSummary, 0, len(summaries))
	for _, s := range summaries {
		site, ok := idx[s.SiteID]
		if !ok {
			continue
		}
		out = append(out, SiteSummary{Site: site, Summary: s})
	}
	return out
}

// SummarySelection narrows a joined summary table. Empty category slices
// leave that column unfiltered; the range keeps rows whose validity interval
// overlaps it.
type SummarySelection struct {
	CatalogFilter
	Range DateRange
}

// SelectSummaries filters rows by category and validity overlap.
func SelectSummaries(rows []SiteSummary, sel SummarySelection) []SiteSummary {
	match := func(set []string, v string) bool {
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

	out := make([]SiteSummary, 0, len(rows))
	for _, r := range rows {
		k := r.Dataset.DatasetKey
		if !sel.Range.Overlaps(r.FromDate, r.ToDate) ||
			!match(sel.Features, k.Feature) ||
			!match(sel.MeasurementTypes, k.MeasurementType) ||
			!match(sel.CollectionTypes, k.CollectionType) ||
			!match(sel.DataCodes, k.DataCode) ||
			!match(sel.DataProviders, k.DataProvider) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Round3 rounds half to even at three decimal places.
func Round3(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(3).InexactFloat64()
}

// FormatStat renders an optional statistic rounded to three decimals. Missing
// values render as "nan"; whole numbers keep a trailing ".0".
func FormatStat(v *float64) string {
	if v == nil {
		return "nan"
	}
	s := strconv.FormatFloat(Round3(*v), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
