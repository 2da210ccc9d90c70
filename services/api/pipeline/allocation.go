package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Allocation service query parameters.
const (
	AllocationFreq   = "D"
	AllocationTarget = "daily volume"
)

// ConsentBand links a consent to a restriction band at a site on a day.
type ConsentBand struct {
	SiteID  string    `json:"site"`
	BandNum int       `json:"band_num"`
	Date    time.Time `json:"date"`
	Consent string    `json:"crc"`
}

// ConsentWap links a consent to an abstraction point.
type ConsentWap struct {
	Consent string
	Wap     string
}

// AllocationUsage is the allocation and apportioned usage of a consent on a
// day, attached to the band it was restricted under. Usage is nil when no
// usage was recorded; Ratio is nil when usage is nil or allocation is zero.
type AllocationUsage struct {
	ConsentBand
	Allocation float64  `json:"allo"`
	Usage      *float64 `json:"usage"`
	Ratio      *float64 `json:"usage_allo_ratio"`
}

type consentDay struct {
	consent string
	date    time.Time
}

// OverlappingSummaries keeps summaries whose validity interval overlaps r.
func OverlappingSummaries(summaries []Summary, r DateRange) []Summary {
	out := make([]Summary, 0, len(summaries))
	for _, s := range summaries {
		if r.Overlaps(s.FromDate, s.ToDate) {
			out = append(out, s)
		}
	}
	return out
}

// ReconcileAllocation compares daily allocation with apportioned usage for
// every consent restricted at siteIDs during r. usage holds the pre-fetched
// summaries of the usage datasets; their site ids are abstraction points.
// Any fetch failure aborts the whole reconciliation.
func ReconcileAllocation(ctx context.Context, src AllocationSource, alloc Allocator, r DateRange, siteIDs []string, usage []Summary) ([]AllocationUsage, error) {
	usage = OverlappingSummaries(usage, r)

	siteIDs = uniqueStrings(siteIDs)
	if len(siteIDs) == 0 {
		return []AllocationUsage{}, nil
	}
	bands, err := src.ConsentBands(ctx, siteIDs, r)
	if err != nil {
		return nil, fmt.Errorf("load consent bands: %w", err)
	}
	if len(bands) == 0 {
		return []AllocationUsage{}, nil
	}

	consents := make([]string, 0, len(bands))
	for i := range bands {
		bands[i].Date = Day(bands[i].Date)
		consents = append(consents, bands[i].Consent)
	}
	consents = uniqueStrings(consents)

	waps := make([]string, 0, len(usage))
	datasetIDs := make([]int, 0, len(usage))
	for _, s := range usage {
		waps = append(waps, s.SiteID)
		datasetIDs = append(datasetIDs, s.Dataset.ID)
	}
	waps = uniqueStrings(waps)
	datasetIDs = uniqueInts(datasetIDs)

	links, err := consentWaps(ctx, src, consents, waps)
	if err != nil {
		return nil, err
	}

	allocation, err := dailyAllocation(ctx, alloc, r, consents)
	if err != nil {
		return nil, err
	}

	points, err := usagePoints(ctx, src, datasetIDs, links, r)
	if err != nil {
		return nil, err
	}
	used := apportionUsage(links, points)

	return combineAllocationUsage(bands, allocation, used), nil
}

func consentWaps(ctx context.Context, src AllocationSource, consents, waps []string) ([]ConsentWap, error) {
	if len(consents) == 0 || len(waps) == 0 {
		return []ConsentWap{}, nil
	}
	links, err := src.ConsentWaps(ctx, consents, waps)
	if err != nil {
		return nil, fmt.Errorf("load consent waps: %w", err)
	}

	seen := make(map[ConsentWap]struct{}, len(links))
	out := make([]ConsentWap, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

// dailyAllocation sums allocation over abstraction points per consent and
// day, converted from the service's daily total to a per-second rate.
func dailyAllocation(ctx context.Context, alloc Allocator, r DateRange, consents []string) (map[consentDay]float64, error) {
	records, err := alloc.AllocationTS(ctx, AllocationRequest{
		Range:    r,
		Freq:     AllocationFreq,
		Target:   AllocationTarget,
		Consents: consents,
	})
	if err != nil {
		return nil, fmt.Errorf("compute allocation: %w", err)
	}

	sums := make(map[consentDay]float64, len(records))
	for _, rec := range records {
		sums[consentDay{consent: rec.Consent, date: Day(rec.Date)}] += rec.Allocation
	}
	for k := range sums {
		sums[k] /= secondsPerDay
	}
	return sums, nil
}

func usagePoints(ctx context.Context, src AllocationSource, datasetIDs []int, links []ConsentWap, r DateRange) ([]Point, error) {
	waps := make([]string, 0, len(links))
	for _, l := range links {
		waps = append(waps, l.Wap)
	}
	waps = uniqueStrings(waps)
	if len(datasetIDs) == 0 || len(waps) == 0 {
		return []Point{}, nil
	}

	points, err := src.DailyValues(ctx, datasetIDs, waps, r)
	if err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		out = append(out, Point{SiteID: p.SiteID, Time: Day(p.Time), Value: p.Value / secondsPerDay})
	}
	return out, nil
}

// apportionUsage splits the usage at each abstraction point and day evenly
// across the consents linked to that point, rounds each share to three
// decimals and sums the shares per consent and day.
func apportionUsage(links []ConsentWap, points []Point) map[consentDay]float64 {
	byWap := make(map[string][]string, len(links))
	for _, l := range links {
		byWap[l.Wap] = append(byWap[l.Wap], l.Consent)
	}

	type wapDay struct {
		wap  string
		date time.Time
	}
	// Every point row joins to every consent on its wap, so the sharing count
	// for a wap and day is the number of joined rows.
	counts := make(map[wapDay]int)
	for _, p := range points {
		counts[wapDay{p.SiteID, p.Time}] += len(byWap[p.SiteID])
	}

	out := make(map[consentDay]float64)
	for _, p := range points {
		n := counts[wapDay{p.SiteID, p.Time}]
		if n == 0 {
			continue
		}
		share := Round3(p.Value / float64(n))
		for _, consent := range byWap[p.SiteID] {
			out[consentDay{consent: consent, date: p.Time}] += share
		}
	}
	return out
}

func combineAllocationUsage(bands []ConsentBand, allocation, used map[consentDay]float64) []AllocationUsage {
	out := make([]AllocationUsage, 0, len(bands))
	for _, b := range bands {
		k := consentDay{consent: b.Consent, date: b.Date}
		allo, ok := allocation[k]
		if !ok {
			continue
		}
		row := AllocationUsage{ConsentBand: b, Allocation: allo}
		if u, ok := used[k]; ok {
			usage := u
			row.Usage = &usage
			row.Ratio = UsageRatio(usage, allo)
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		if out[i].BandNum != out[j].BandNum {
			return out[i].BandNum < out[j].BandNum
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Consent < out[j].Consent
	})
	return out
}

// UsageRatio returns usage/allocation, or nil when the result is undefined.
func UsageRatio(usage, allocation float64) *float64 {
	if allocation == 0 {
		return nil
	}
	ratio := usage / allocation
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil
	}
	return &ratio
}
