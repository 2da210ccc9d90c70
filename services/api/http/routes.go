package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())

	core := v1.Group("/core")
	{
		core.GET("/sites", s.handleSites)
	}

	lowflow := v1.Group("/lowflow")
	{
		lowflow.GET("/filters", s.handleFilters)
		lowflow.GET("/summary", s.handleLowFlowSummary)
		lowflow.GET("/summary.csv", s.handleLowFlowSummaryCSV)
		lowflow.GET("/map", s.handleMap)
		lowflow.GET("/sites", s.handleSiteOptions)
		lowflow.GET("/table", s.handleTable)
		lowflow.GET("/bands", s.handleBandOptions)
		lowflow.GET("/bands/chart", s.handleBandChart)
		lowflow.GET("/bands/export", s.handleBandExport)
	}

	timeseries := v1.Group("/timeseries")
	{
		timeseries.GET("/datasets", s.handleDatasets)
		timeseries.GET("/summary", s.handleTimeSeriesSummary)
		timeseries.GET("/table", s.handleTimeSeriesTable)
		timeseries.GET("/data", s.handleTimeSeriesData)
	}

	allocation := v1.Group("/allocation")
	{
		allocation.GET("/usage", s.handleAllocationUsage)
		allocation.GET("/usage.csv", s.handleAllocationUsageCSV)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	if err := s.graph.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
