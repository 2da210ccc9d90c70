package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// GET /api/v1/timeseries/datasets
func (s *Server) handleDatasets(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	datasets, err := s.graph.Datasets(ctx, catalogFilter(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, datasets)
}

// handleTimeSeriesSummary returns the dataset summaries whose validity
// overlaps the range.
// GET /api/v1/timeseries/summary
func (s *Server) handleTimeSeriesSummary(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	rows, err := s.graph.SelectTimeSeriesSummary(ctx, pipeline.SummarySelection{CatalogFilter: catalogFilter(c), Range: r})
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, rows)
}

// handleTimeSeriesTable returns the same selection as handleTimeSeriesSummary
// with statistics rounded for display.
// GET /api/v1/timeseries/table
func (s *Server) handleTimeSeriesTable(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	rows, err := s.graph.TimeSeriesTable(ctx, pipeline.SummarySelection{CatalogFilter: catalogFilter(c), Range: r})
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, rows)
}

// GET /api/v1/timeseries/data
func (s *Server) handleTimeSeriesData(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	sel := pipeline.SummarySelection{CatalogFilter: catalogFilter(c), Range: r}
	points, err := s.graph.TimeSeries(ctx, sel, queryList(c, "sites"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, points)
}
