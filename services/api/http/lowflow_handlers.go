package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/views"
)

// handleSites returns the site register, optionally restricted to ids.
// GET /api/v1/core/sites
func (s *Server) handleSites(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	sites, err := pipeline.LoadSites(ctx, s.store, queryList(c, "ids"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, sites)
}

// GET /api/v1/lowflow/summary
func (s *Server) handleLowFlowSummary(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	rows, err := s.graph.SiteSummary(ctx, r)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, rows)
}

// GET /api/v1/lowflow/summary.csv
func (s *Server) handleLowFlowSummaryCSV(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	data, err := s.graph.SiteSummaryCSV(ctx, r)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondCSV(c, "site_summary.csv", data)
}

// handleMap returns one marker layer per restriction category.
// GET /api/v1/lowflow/map
func (s *Server) handleMap(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	layers, err := s.graph.MapMarkers(ctx, r, views.MapFilter{
		SiteTypes:   queryList(c, "site_type"),
		DataSources: queryList(c, "data_source"),
		Categories:  queryList(c, "category"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": layers, "end_date": r.To.Format(pipeline.DateLayout)})
}

// GET /api/v1/lowflow/sites
func (s *Server) handleSiteOptions(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	opts, err := s.graph.SiteOptions(ctx, r)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, opts)
}

// GET /api/v1/lowflow/table
func (s *Server) handleTable(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	rows, err := s.graph.SummaryTable(ctx, r, queryList(c, "sites"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, rows)
}

// handleBandOptions lists the bands of the selected sites on date, which
// defaults to the end of the default range.
// GET /api/v1/lowflow/bands
func (s *Server) handleBandOptions(c *gin.Context) {
	date, err := parseDay(c, "date", s.graph.DefaultRange().To)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	opts, err := s.graph.BandOptions(ctx, queryList(c, "sites"), date)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, opts)
}

// GET /api/v1/lowflow/bands/chart
func (s *Server) handleBandChart(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	bands, err := queryInts(c, "bands")
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	chart, err := s.graph.BandChart(ctx, queryList(c, "sites"), bands, r)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chart})
}

// GET /api/v1/lowflow/bands/export
func (s *Server) handleBandExport(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	bands, err := queryInts(c, "bands")
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	data, err := s.graph.BandSeriesCSV(ctx, queryList(c, "sites"), bands, r)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondCSV(c, "tsdata.csv", data)
}

// handleFilters lists the choices of the map filter controls.
// GET /api/v1/lowflow/filters
func (s *Server) handleFilters(c *gin.Context) {
	cfg := s.graph.Config()

	categories := make([]gin.H, 0, len(cfg.Categories))
	for _, name := range cfg.Categories {
		categories = append(categories, gin.H{"label": name, "value": name, "color": cfg.CategoryColors[name]})
	}

	c.JSON(http.StatusOK, gin.H{
		"site_types":         options(cfg.SiteTypes),
		"default_site_types": nonNil(cfg.DefaultSiteTypes),
		"data_sources":       options(cfg.DataSources),
		"categories":         categories,
	})
}

func options(values []string) []views.Option {
	out := make([]views.Option, 0, len(values))
	for _, v := range values {
		out = append(out, views.Option{Label: v, Value: v})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
