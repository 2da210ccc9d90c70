package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSummaries is returned when a time-series request selects no summary rows.
var ErrNoSummaries = errors.New("no summaries selected")

// FetchTimeSeries reads the raw series behind a selection of summary rows.
// The first row's dataset decides the source: native datasets read the daily
// table for every selected site, synthetic datasets query the hydrological
// web service once per site.
func FetchTimeSeries(ctx context.Context, daily DailySource, samples SampleSource, rows []Summary, r DateRange) ([]Point, error) {
	if len(rows) == 0 {
		return nil, ErrNoSummaries
	}
	dataset := rows[0].Dataset

	sites := make([]string, 0, len(rows))
	for _, row := range rows {
		sites = append(sites, row.SiteID)
	}
	sites = uniqueStrings(sites)

	if !dataset.Synthetic() {
		points, err := daily.DailyValues(ctx, []int{dataset.ID}, sites, r)
		if err != nil {
			return nil, fmt.Errorf("load daily values: %w", err)
		}
		return points, nil
	}

	out := make([]Point, 0)
	for _, site := range sites {
		points, err := samples.GetData(ctx, site, dataset.MeasurementType, r)
		if err != nil {
			return nil, fmt.Errorf("load samples for %s: %w", site, err)
		}
		out = append(out, points...)
	}
	return out, nil
}
