package views

import (
	"context"
	"sort"
	"time"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/export"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// PlaceholderTitle is the chart title shown before any site is selected.
const PlaceholderTitle = "Click on the map to select sites"

// Trace colours, cycled over band names in first-seen order.
var defaultColors = []string{
	"rgb(31, 119, 180)",
	"rgb(255, 127, 14)",
	"rgb(44, 160, 44)",
	"rgb(214, 39, 40)",
	"rgb(148, 103, 189)",
	"rgb(140, 86, 75)",
	"rgb(227, 119, 194)",
	"rgb(127, 127, 127)",
	"rgb(188, 189, 34)",
	"rgb(23, 190, 207)",
}

// BandOption is a band dropdown entry.
type BandOption struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Series is one line of a chart.
type Series struct {
	Name        string    `json:"name"`
	LegendGroup string    `json:"legendgroup"`
	X           []string  `json:"x"`
	Y           []float64 `json:"y"`
	Color       string    `json:"color"`
	Dash        string    `json:"dash,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	Opacity     float64   `json:"opacity"`
	YAxis       string    `json:"yaxis"`
}

// Chart is the band time-series chart.
type Chart struct {
	Title       string    `json:"title"`
	XRange      [2]string `json:"x_range,omitempty"`
	YAxisTitle  string    `json:"yaxis_title,omitempty"`
	Y2AxisTitle string    `json:"yaxis2_title,omitempty"`
	Series      []Series  `json:"series"`
	Placeholder bool      `json:"placeholder"`
}

// BandOptions lists the bands of sites on date, one per band name.
func (g *Graph) BandOptions(ctx context.Context, sites []string, date time.Time) ([]BandOption, error) {
	if len(sites) == 0 {
		return []BandOption{}, nil
	}
	day := pipeline.DateRange{From: pipeline.Day(date), To: pipeline.Day(date)}
	return memo(ctx, g, "band_options", func(ctx context.Context) ([]BandOption, error) {
		rows, err := g.src.Bands(ctx, pipeline.BandQuery{Sites: sites, Range: day})
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{})
		out := make([]BandOption, 0)
		for _, b := range rows {
			if _, ok := seen[b.BandName]; ok {
				continue
			}
			seen[b.BandName] = struct{}{}
			out = append(out, BandOption{Label: b.BandName + " - " + b.SiteType, Value: b.BandNum})
		}
		return out, nil
	}, sites, day)
}

// BandChart plots the flow at the first selected site together with the
// triggers and allowed allocation of each selected band.
func (g *Graph) BandChart(ctx context.Context, sites []string, bands []int, r pipeline.DateRange) (Chart, error) {
	if len(sites) == 0 || len(bands) == 0 {
		return placeholderChart(), nil
	}
	return memo(ctx, g, "band_chart", func(ctx context.Context) (Chart, error) {
		rows, err := g.bandRows(ctx, sites, bands, r)
		if err != nil {
			return Chart{}, err
		}
		return buildChart(sites[0], rows, r), nil
	}, sites, bands, r)
}

// BandSeriesCSV renders the selected band rows as CSV. Nothing is rendered
// until sites and bands are selected.
func (g *Graph) BandSeriesCSV(ctx context.Context, sites []string, bands []int, r pipeline.DateRange) ([]byte, error) {
	if len(sites) == 0 || len(bands) == 0 {
		return nil, nil
	}
	return memo(ctx, g, "band_series_csv", func(ctx context.Context) ([]byte, error) {
		rows, err := g.bandRows(ctx, sites, bands, r)
		if err != nil {
			return nil, err
		}
		return export.CSV(export.BandSeriesHeader, export.BandSeriesRows(rows))
	}, sites, bands, r)
}

func (g *Graph) bandRows(ctx context.Context, sites []string, bands []int, r pipeline.DateRange) ([]pipeline.Band, error) {
	return memo(ctx, g, "band_rows", func(ctx context.Context) ([]pipeline.Band, error) {
		return g.src.Bands(ctx, pipeline.BandQuery{Sites: sites, BandNums: bands, Range: r})
	}, sites, bands, r)
}

func placeholderChart() Chart {
	return Chart{
		Title:       PlaceholderTitle,
		Series:      []Series{{X: []string{"0"}, Y: []float64{0}}},
		Placeholder: true,
	}
}

func buildChart(site string, rows []pipeline.Band, r pipeline.DateRange) Chart {
	chart := Chart{
		Title:      "Site " + site,
		XRange:     [2]string{r.From.Format(pipeline.DateLayout), r.To.Format(pipeline.DateLayout)},
		YAxisTitle: "Flow (m3/s) or water level (m)",
	}

	colors := make(map[string]string)
	groups := make(map[string][]pipeline.Band)
	names := make([]string, 0)
	flow := Series{Name: "Flow", LegendGroup: "flow", X: []string{}, Y: []float64{}, Color: "black", Opacity: 1, YAxis: "y"}
	seenDate := make(map[string]struct{})
	for _, b := range rows {
		if _, ok := colors[b.BandName]; !ok {
			colors[b.BandName] = defaultColors[len(colors)%len(defaultColors)]
			names = append(names, b.BandName)
		}
		groups[b.BandName] = append(groups[b.BandName], b)

		d := b.Date.Format(pipeline.DateLayout)
		if _, ok := seenDate[d]; !ok {
			seenDate[d] = struct{}{}
			flow.X = append(flow.X, d)
			flow.Y = append(flow.Y, b.Flow)
		}
	}
	chart.Series = append(chart.Series, flow)

	sort.Strings(names)
	for _, name := range names {
		group := groups[name]
		x := make([]string, len(group))
		minTrig := make([]float64, len(group))
		maxTrig := make([]float64, len(group))
		allo := make([]float64, len(group))
		for i, b := range group {
			x[i] = b.Date.Format(pipeline.DateLayout)
			minTrig[i] = b.MinTrigger
			maxTrig[i] = b.MaxTrigger
			allo[i] = b.BandAllocation
		}
		c := colors[name]
		chart.Series = append(chart.Series,
			Series{Name: "Min Trigger, " + name, LegendGroup: name, X: x, Y: minTrig, Color: c, Dash: "dot", Mode: "lines", Opacity: 0.7, YAxis: "y"},
			Series{Name: "Max Trigger, " + name, LegendGroup: name, X: x, Y: maxTrig, Color: c, Dash: "dash", Mode: "lines", Opacity: 0.7, YAxis: "y"},
			Series{Name: "Allowed Allocation %, " + name, LegendGroup: name, X: x, Y: allo, Color: c, Opacity: 0.7, YAxis: "y2"},
		)
		chart.Y2AxisTitle = "Allowed Allocation %"
	}
	return chart
}
