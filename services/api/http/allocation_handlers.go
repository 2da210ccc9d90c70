package http

import (
	"github.com/gin-gonic/gin"
)

// handleAllocationUsage reconciles allocation and usage for the selected
// sites, or every site in the restriction summary.
// GET /api/v1/allocation/usage
func (s *Server) handleAllocationUsage(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	rows, err := s.graph.AllocationUsage(ctx, r, queryList(c, "sites"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondList(c, rows)
}

// GET /api/v1/allocation/usage.csv
func (s *Server) handleAllocationUsageCSV(c *gin.Context) {
	r, err := s.dateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	data, err := s.graph.AllocationUsageCSV(ctx, r, queryList(c, "sites"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondCSV(c, "allocation_usage.csv", data)
}
