package views

import (
	"context"
	"sort"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/export"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// MapFilter narrows the map markers. A nil slice falls back to the
// configured defaults; an empty non-nil slice matches nothing.
type MapFilter struct {
	SiteTypes   []string `json:"site_types"`
	DataSources []string `json:"data_sources"`
	Categories  []string `json:"categories"`
}

// Marker is one site on the map.
type Marker struct {
	SiteID string  `json:"site_id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Text   string  `json:"text"`
}

// MarkerLayer holds the markers of one restriction category.
type MarkerLayer struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Markers []Marker `json:"markers"`
}

// Option is a dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TableRow is a row of the restriction summary table.
type TableRow struct {
	ExtSiteID         string  `json:"ExtSiteID"`
	ExtSiteName       string  `json:"ExtSiteName"`
	NZTMX             int     `json:"NZTMX"`
	NZTMY             int     `json:"NZTMY"`
	Date              string  `json:"Date"`
	SiteType          string  `json:"Site type"`
	DataSource        string  `json:"Data source"`
	DaysSinceEstimate int     `json:"Days since last estimate"`
	Flow              float64 `json:"Flow or water level"`
	CrcCount          int     `json:"Crc count"`
	MinTrigger        float64 `json:"Min trigger"`
	MaxTrigger        float64 `json:"Max trigger"`
	Category          string  `json:"Restriction category"`
}

// SiteSummary is the restriction summary for every site and day in r.
func (g *Graph) SiteSummary(ctx context.Context, r pipeline.DateRange) ([]pipeline.SiteRestriction, error) {
	return memo(ctx, g, "site_summary", func(ctx context.Context) ([]pipeline.SiteRestriction, error) {
		return pipeline.RestrictionSummary(ctx, g.src, r)
	}, r)
}

func (g *Graph) mapFilter(f MapFilter) MapFilter {
	if f.SiteTypes == nil {
		f.SiteTypes = g.cfg.DefaultSiteTypes
	}
	if f.DataSources == nil {
		f.DataSources = g.cfg.DataSources
	}
	if f.Categories == nil {
		f.Categories = g.cfg.Categories
	}
	return f
}

// MapMarkers places the sites reported on the last day of r, one layer per
// selected category in selection order.
func (g *Graph) MapMarkers(ctx context.Context, r pipeline.DateRange, f MapFilter) ([]MarkerLayer, error) {
	f = g.mapFilter(f)
	return memo(ctx, g, "map_markers", func(ctx context.Context) ([]MarkerLayer, error) {
		rows, err := g.SiteSummary(ctx, r)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{})
		byCategory := make(map[string][]Marker)
		for _, row := range rows {
			if !row.Date.Equal(r.To) ||
				!contains(f.SiteTypes, row.SiteType) ||
				!contains(f.DataSources, row.DataSource) ||
				!contains(f.Categories, row.Category) {
				continue
			}
			if _, ok := seen[row.ID]; ok {
				continue
			}
			seen[row.ID] = struct{}{}
			byCategory[row.Category] = append(byCategory[row.Category], Marker{
				SiteID: row.ID,
				Lat:    row.Lat,
				Lon:    row.Lon,
				Text:   row.Hover,
			})
		}

		layers := make([]MarkerLayer, 0, len(f.Categories))
		for _, c := range f.Categories {
			markers := byCategory[c]
			if markers == nil {
				markers = []Marker{}
			}
			layers = append(layers, MarkerLayer{Name: c, Color: g.cfg.CategoryColors[c], Markers: markers})
		}
		return layers, nil
	}, r, f)
}

// SiteOptions lists the distinct sites in the summary, sorted.
func (g *Graph) SiteOptions(ctx context.Context, r pipeline.DateRange) ([]Option, error) {
	return memo(ctx, g, "site_options", func(ctx context.Context) ([]Option, error) {
		rows, err := g.SiteSummary(ctx, r)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(rows))
		seen := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			if _, ok := seen[row.ID]; ok {
				continue
			}
			seen[row.ID] = struct{}{}
			ids = append(ids, row.ID)
		}
		sort.Strings(ids)

		out := make([]Option, 0, len(ids))
		for _, id := range ids {
			out = append(out, Option{Label: id, Value: id})
		}
		return out, nil
	}, r)
}

// SummaryTable renders the summary table, restricted to sites when any are
// given.
func (g *Graph) SummaryTable(ctx context.Context, r pipeline.DateRange, sites []string) ([]TableRow, error) {
	return memo(ctx, g, "summary_table", func(ctx context.Context) ([]TableRow, error) {
		rows, err := g.SiteSummary(ctx, r)
		if err != nil {
			return nil, err
		}

		out := make([]TableRow, 0, len(rows))
		for _, row := range rows {
			if len(sites) > 0 && !contains(sites, row.ID) {
				continue
			}
			out = append(out, TableRow{
				ExtSiteID:         row.ID,
				ExtSiteName:       row.Name,
				NZTMX:             row.NZTMX,
				NZTMY:             row.NZTMY,
				Date:              row.Date.Format(pipeline.DateLayout),
				SiteType:          row.SiteType,
				DataSource:        row.DataSource,
				DaysSinceEstimate: row.DaysSinceEstimate,
				Flow:              row.Flow,
				CrcCount:          row.CrcCount,
				MinTrigger:        row.MinTrigger,
				MaxTrigger:        row.MaxTrigger,
				Category:          row.Category,
			})
		}
		return out, nil
	}, r, sites)
}

// SiteSummaryCSV renders the full summary as CSV.
func (g *Graph) SiteSummaryCSV(ctx context.Context, r pipeline.DateRange) ([]byte, error) {
	return memo(ctx, g, "site_summary_csv", func(ctx context.Context) ([]byte, error) {
		rows, err := g.SiteSummary(ctx, r)
		if err != nil {
			return nil, err
		}
		return export.CSV(export.SiteSummaryHeader, export.SiteSummaryRows(rows))
	}, r)
}
