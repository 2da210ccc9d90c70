package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// Datasets lists the catalog datasets matching f.
func (g *Graph) Datasets(ctx context.Context, f pipeline.CatalogFilter) ([]pipeline.Dataset, error) {
	return memo(ctx, g, "datasets", func(ctx context.Context) ([]pipeline.Dataset, error) {
		return pipeline.LoadCatalog(ctx, g.src, f)
	}, f)
}

// TimeSeriesSummary joins the dataset summaries matching f to the site
// register. Sites and summaries are read concurrently.
func (g *Graph) TimeSeriesSummary(ctx context.Context, f pipeline.CatalogFilter) ([]pipeline.SiteSummary, error) {
	return memo(ctx, g, "ts_summary", func(ctx context.Context) ([]pipeline.SiteSummary, error) {
		var (
			sites     []pipeline.Site
			summaries []pipeline.Summary
		)

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			sites, err = pipeline.LoadSites(ctx, g.src, nil)
			return err
		})
		eg.Go(func() error {
			var err error
			summaries, err = g.summaries(ctx, f)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return pipeline.JoinSites(sites, summaries), nil
	}, f)
}

func (g *Graph) summaries(ctx context.Context, f pipeline.CatalogFilter) ([]pipeline.Summary, error) {
	return memo(ctx, g, "summaries", func(ctx context.Context) ([]pipeline.Summary, error) {
		return pipeline.AggregateSummaries(ctx, g.src, f, g.cfg.Pipeline)
	}, f)
}

// SelectTimeSeriesSummary narrows the joined summaries to sel.
func (g *Graph) SelectTimeSeriesSummary(ctx context.Context, sel pipeline.SummarySelection) ([]pipeline.SiteSummary, error) {
	rows, err := g.TimeSeriesSummary(ctx, sel.CatalogFilter)
	if err != nil {
		return nil, err
	}
	return pipeline.SelectSummaries(rows, sel), nil
}

// TimeSeries reads the raw series behind the selected summaries, restricted
// to sites when any are given.
func (g *Graph) TimeSeries(ctx context.Context, sel pipeline.SummarySelection, sites []string) ([]pipeline.Point, error) {
	return memo(ctx, g, "time_series", func(ctx context.Context) ([]pipeline.Point, error) {
		rows, err := g.SelectTimeSeriesSummary(ctx, sel)
		if err != nil {
			return nil, err
		}

		selected := make([]pipeline.Summary, 0, len(rows))
		for _, row := range rows {
			if len(sites) > 0 && !contains(sites, row.SiteID) {
				continue
			}
			selected = append(selected, row.Summary)
		}
		return pipeline.FetchTimeSeries(ctx, g.src, g.samples, selected, sel.Range)
	}, sel, sites)
}

// SummaryRow is a time-series summary table row with statistics rendered
// for display and validity dates as calendar days.
type SummaryRow struct {
	ExtSiteID     string   `json:"ExtSiteID"`
	ExtSiteName   string   `json:"ExtSiteName"`
	DatasetTypeID int      `json:"DatasetTypeID"`
	DatasetName   string   `json:"DatasetName"`
	Min           string   `json:"Min"`
	Median        *float64 `json:"Median"`
	Mean          string   `json:"Mean"`
	Max           string   `json:"Max"`
	Count         *int     `json:"Count"`
	FromDate      string   `json:"FromDate"`
	ToDate        string   `json:"ToDate"`
}

// TimeSeriesTable renders the summaries selected by sel as table rows.
func (g *Graph) TimeSeriesTable(ctx context.Context, sel pipeline.SummarySelection) ([]SummaryRow, error) {
	rows, err := g.SelectTimeSeriesSummary(ctx, sel)
	if err != nil {
		return nil, err
	}

	out := make([]SummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, SummaryRow{
			ExtSiteID:     r.Site.ID,
			ExtSiteName:   r.Name,
			DatasetTypeID: r.Dataset.ID,
			DatasetName:   r.Dataset.Name,
			Min:           pipeline.FormatStat(r.Min),
			Median:        r.Median,
			Mean:          pipeline.FormatStat(r.Mean),
			Max:           pipeline.FormatStat(r.Max),
			Count:         r.Count,
			FromDate:      r.FromDate.Format(pipeline.DateLayout),
			ToDate:        r.ToDate.Format(pipeline.DateLayout),
		})
	}
	return out, nil
}
