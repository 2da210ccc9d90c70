package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/export"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/views"
)

// queryList reads a list parameter given either repeated (?k=a&k=b) or
// comma-separated (?k=a,b). Blank entries are dropped; an absent key is nil.
func queryList(c *gin.Context, key string) []string {
	values, ok := c.GetQueryArray(key)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryInts(c *gin.Context, key string) ([]int, error) {
	values := queryList(c, key)
	if values == nil {
		return nil, nil
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", key, v)
		}
		out = append(out, n)
	}
	return out, nil
}

// dateRange reads from/to, filling missing ends from the default window.
func (s *Server) dateRange(c *gin.Context) (pipeline.DateRange, error) {
	r := s.graph.DefaultRange()
	from, to := r.From, r.To

	if v := c.Query("from"); v != "" {
		t, err := pipeline.ParseDay(v)
		if err != nil {
			return pipeline.DateRange{}, fmt.Errorf("invalid from: %s", v)
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := pipeline.ParseDay(v)
		if err != nil {
			return pipeline.DateRange{}, fmt.Errorf("invalid to: %s", v)
		}
		to = t
	}
	return pipeline.NewDateRange(from, to)
}

func catalogFilter(c *gin.Context) pipeline.CatalogFilter {
	return pipeline.CatalogFilter{
		Features:         queryList(c, "feature"),
		MeasurementTypes: queryList(c, "measurement_type"),
		CollectionTypes:  queryList(c, "collection_type"),
		DataCodes:        queryList(c, "data_code"),
		DataProviders:    queryList(c, "data_provider"),
	}
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fail maps a view error to a status code.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoSummaries):
		status = http.StatusNotFound
	case errors.Is(err, views.ErrAllocationUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondList[T any](c *gin.Context, data []T) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"count": len(data),
		},
	})
}

// respondCSV sends data as a download, or as a data URI string when
// format=datauri. Nil data means nothing is selected yet.
func respondCSV(c *gin.Context, filename string, data []byte) {
	if c.Query("format") == "datauri" {
		if data == nil {
			c.String(http.StatusOK, "")
			return
		}
		c.String(http.StatusOK, export.DataURI(data))
		return
	}
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func parseDay(c *gin.Context, key string, def time.Time) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	t, err := pipeline.ParseDay(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %s", key, v)
	}
	return t, nil
}
