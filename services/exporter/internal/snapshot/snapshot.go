// Package snapshot builds the restriction summary files the exporter writes.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/export"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// File is one rendered export.
type File struct {
	Name string
	Rows int
	Data []byte
}

// Range resolves the export window: explicit ends win, otherwise the window
// of days ending on now.
func Range(now time.Time, days int, from, to *time.Time) (pipeline.DateRange, error) {
	end := now
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -days)
	if from != nil {
		start = *from
	}
	return pipeline.NewDateRange(start, end)
}

// SiteSummary renders the restriction summary for r.
func SiteSummary(ctx context.Context, src pipeline.LowFlowSource, r pipeline.DateRange) (File, error) {
	rows, err := pipeline.RestrictionSummary(ctx, src, r)
	if err != nil {
		return File{}, err
	}
	data, err := export.CSV(export.SiteSummaryHeader, export.SiteSummaryRows(rows))
	if err != nil {
		return File{}, err
	}
	return File{
		Name: fmt.Sprintf("site_summary_%s_%s.csv", r.From.Format(pipeline.DateLayout), r.To.Format(pipeline.DateLayout)),
		Rows: len(rows),
		Data: data,
	}, nil
}

// Write stores f under dir, creating dir when missing. The file is written
// to a temporary name first and renamed into place.
func Write(dir string, f File) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, f.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}
