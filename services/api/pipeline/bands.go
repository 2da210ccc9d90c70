package pipeline

import (
	"context"
	"time"
)

// Band is one day of a restriction band at a site.
type Band struct {
	SiteID         string    `json:"site"`
	Date           time.Time `json:"date"`
	BandNum        int       `json:"band_num"`
	BandName       string    `json:"band_name"`
	SiteType       string    `json:"site_type"`
	Flow           float64   `json:"flow"`
	MinTrigger     float64   `json:"min_trig"`
	MaxTrigger     float64   `json:"max_trig"`
	BandAllocation float64   `json:"band_allo"`
}

// BandQuery selects band rows. Nil slices leave that column unfiltered; an
// empty non-nil slice matches no rows.
type BandQuery struct {
	Sites    []string
	BandNums []int
	Range    DateRange
}

// BandSource reads restriction band rows ordered by date.
type BandSource interface {
	Bands(ctx context.Context, q BandQuery) ([]Band, error)
}
