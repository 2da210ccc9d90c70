package views

import (
	"context"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/export"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// AllocationUsage reconciles allocation with metered usage for the consents
// restricted at sites during r. Nil sites means every site in the summary.
func (g *Graph) AllocationUsage(ctx context.Context, r pipeline.DateRange, sites []string) ([]pipeline.AllocationUsage, error) {
	if g.alloc == nil {
		return nil, ErrAllocationUnavailable
	}
	return memo(ctx, g, "allocation_usage", func(ctx context.Context) ([]pipeline.AllocationUsage, error) {
		ids := sites
		if ids == nil {
			rows, err := g.SiteSummary(ctx, r)
			if err != nil {
				return nil, err
			}
			ids = make([]string, 0, len(rows))
			for _, row := range rows {
				ids = append(ids, row.ID)
			}
		}

		usage, err := g.summaries(ctx, pipeline.CatalogFilter{MeasurementTypes: g.cfg.UsageMeasurementTypes})
		if err != nil {
			return nil, err
		}
		return pipeline.ReconcileAllocation(ctx, g.src, g.alloc, r, ids, usage)
	}, r, sites)
}

// AllocationUsageCSV renders AllocationUsage as CSV.
func (g *Graph) AllocationUsageCSV(ctx context.Context, r pipeline.DateRange, sites []string) ([]byte, error) {
	rows, err := g.AllocationUsage(ctx, r, sites)
	if err != nil {
		return nil, err
	}
	return export.CSV(export.AllocationUsageHeader, export.AllocationUsageRows(rows))
}
