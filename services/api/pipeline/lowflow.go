package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Restriction categories.
const (
	CategoryNo          = "No"
	CategoryPartial     = "Partial"
	CategoryFull        = "Full"
	CategoryDeactivated = "Deactivated"
)

// Restriction is one day of low-flow restriction state at a site.
type Restriction struct {
	SiteID            string    `json:"site_id"`
	Date              time.Time `json:"date"`
	SiteType          string    `json:"site_type"`
	DataSource        string    `json:"data_source"`
	DaysSinceEstimate int       `json:"days_since_last_estimate"`
	Flow              float64   `json:"flow_or_water_level"`
	CrcCount          int       `json:"crc_count"`
	MinTrigger        float64   `json:"min_trigger"`
	MaxTrigger        float64   `json:"max_trigger"`
	Category          string    `json:"restriction_category"`
}

// SiteRestriction is a restriction row joined to its site.
type SiteRestriction struct {
	Site
	Restriction
}

// RestrictionHover renders "id<br>name<br>source N day(s) ago".
func RestrictionHover(s Site, r Restriction) string {
	return s.ID + HoverSeparator + strings.TrimSpace(s.Name) + HoverSeparator +
		r.DataSource + " " + strconv.Itoa(r.DaysSinceEstimate) + " day(s) ago"
}

// RestrictionSummary returns one row per site and day in r, joined to the
// site register. Sites missing from the register drop out.
func RestrictionSummary(ctx context.Context, src LowFlowSource, r DateRange) ([]SiteRestriction, error) {
	restrictions, err := src.Restrictions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("load restrictions: %w", err)
	}
	if len(restrictions) == 0 {
		return []SiteRestriction{}, nil
	}

	ids := make([]string, 0, len(restrictions))
	for _, rs := range restrictions {
		ids = append(ids, rs.SiteID)
	}

	sites, err := LoadSites(ctx, src, uniqueStrings(ids))
	if err != nil {
		return nil, err
	}
	return JoinRestrictions(sites, restrictions), nil
}

// JoinRestrictions inner-joins restriction rows to sites and derives hover text.
func JoinRestrictions(sites []Site, restrictions []Restriction) []SiteRestriction {
	idx := siteIndex(sites)
	out := make([]SiteRestriction, 0, len(restrictions))
	for _, rs := range restrictions {
		site, ok := idx[rs.SiteID]
		if !ok {
			continue
		}
		rs.Date = Day(rs.Date)
		site.Hover = RestrictionHover(site, rs)
		out = append(out, SiteRestriction{Site: site, Restriction: rs})
	}
	return out
}
