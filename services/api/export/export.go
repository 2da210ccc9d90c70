// Package export renders dashboard tables as CSV and as data URIs that a
// browser can download directly.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// DataURIPrefix precedes the percent-encoded CSV in a data URI.
const DataURIPrefix = "data:text/csv;charset=utf-8,"

const upperhex = "0123456789ABCDEF"

// SiteSummaryHeader is the column order of the site summary download.
var SiteSummaryHeader = []string{
	"ExtSiteID", "ExtSiteName", "NZTMX", "NZTMY", "lon", "lat",
	"Date", "Site type", "Data source", "Days since last estimate",
	"Flow or water level", "Crc count", "Min trigger", "Max trigger",
	"Restriction category", "hover",
}

// BandSeriesHeader is the column order of the band time-series download.
var BandSeriesHeader = []string{
	"site", "date", "band_num", "band_name", "site_type",
	"flow", "min_trig", "max_trig", "band_allo",
}

// AllocationUsageHeader is the column order of the allocation/usage download.
var AllocationUsageHeader = []string{
	"site", "band_num", "date", "crc", "allo", "usage", "usage_allo_ratio",
}

// CSV writes a header row followed by rows, comma-separated.
func CSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI embeds csv in a data URI. Every byte outside A-Z a-z 0-9 _ . - ~ /
// is percent-encoded with upper-case hex.
func DataURI(csv []byte) string {
	var b strings.Builder
	b.Grow(len(DataURIPrefix) + len(csv)*3)
	b.WriteString(DataURIPrefix)
	for _, c := range csv {
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', '/':
		return true
	}
	return false
}

// SiteSummaryRows renders restriction summary rows in SiteSummaryHeader order.
func SiteSummaryRows(rows []pipeline.SiteRestriction) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ID,
			r.Name,
			strconv.Itoa(r.NZTMX),
			strconv.Itoa(r.NZTMY),
			formatFloat(r.Lon),
			formatFloat(r.Lat),
			r.Date.Format(pipeline.DateLayout),
			r.SiteType,
			r.DataSource,
			strconv.Itoa(r.DaysSinceEstimate),
			formatFloat(r.Flow),
			strconv.Itoa(r.CrcCount),
			formatFloat(r.MinTrigger),
			formatFloat(r.MaxTrigger),
			r.Category,
			r.Hover,
		})
	}
	return out
}

// BandSeriesRows renders band rows in BandSeriesHeader order.
func BandSeriesRows(rows []pipeline.Band) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SiteID,
			r.Date.Format(pipeline.DateLayout),
			strconv.Itoa(r.BandNum),
			r.BandName,
			r.SiteType,
			formatFloat(r.Flow),
			formatFloat(r.MinTrigger),
			formatFloat(r.MaxTrigger),
			formatFloat(r.BandAllocation),
		})
	}
	return out
}

// AllocationUsageRows renders reconciled rows in AllocationUsageHeader order.
// Missing usage and ratios are left blank.
func AllocationUsageRows(rows []pipeline.AllocationUsage) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SiteID,
			strconv.Itoa(r.BandNum),
			r.Date.Format(pipeline.DateLayout),
			r.Consent,
			formatFloat(r.Allocation),
			optional(r.Usage),
			optional(r.Ratio),
		})
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
