package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/nztm"
)

// HoverSeparator joins the parts of a map hover label.
const HoverSeparator = "<br>"

// Site is a site register entry ready for display.
type Site struct {
	ID    string  `json:"ext_site_id"`
	Name  string  `json:"ext_site_name"`
	NZTMX int     `json:"nztmx"`
	NZTMY int     `json:"nztmy"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Hover string  `json:"hover"`
}

// LoadSites reads the site register and derives display fields. A nil ids
// slice loads every site; an empty non-nil slice returns no sites without
// reading the store.
func LoadSites(ctx context.Context, src SiteSource, ids []string) ([]Site, error) {
	if ids != nil && len(ids) == 0 {
		return []Site{}, nil
	}

	records, err := src.Sites(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}
	return BuildSites(records)
}

// BuildSites normalises raw site rows: null names become empty strings,
// coordinates are truncated to whole metres and reprojected to WGS84.
func BuildSites(records []SiteRecord) ([]Site, error) {
	sites := make([]Site, 0, len(records))
	points := make([]nztm.Point, 0, len(records))
	for _, rec := range records {
		name := ""
		if rec.Name != nil {
			name = *rec.Name
		}
		s := Site{
			ID:    rec.ID,
			Name:  name,
			NZTMX: int(rec.NZTMX),
			NZTMY: int(rec.NZTMY),
		}
		s.Hover = s.ID + HoverSeparator + strings.TrimSpace(s.Name)
		sites = append(sites, s)
		points = append(points, nztm.Point{Easting: float64(s.NZTMX), Northing: float64(s.NZTMY)})
	}

	coords, err := nztm.ToWGS84All(points)
	if err != nil {
		return nil, fmt.Errorf("reproject sites: %w", err)
	}
	for i := range sites {
		sites[i].Lon = coords[i].Lon
		sites[i].Lat = coords[i].Lat
	}
	return sites, nil
}

func siteIndex(sites []Site) map[string]Site {
	idx := make(map[string]Site, len(sites))
	for _, s := range sites {
		if _, ok := idx[s.ID]; !ok {
			idx[s.ID] = s
		}
	}
	return idx
}
