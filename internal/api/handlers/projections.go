package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fploptimizer/internal/pipeline"
	"fploptimizer/internal/predictor"
	"fploptimizer/internal/types"
)

// ProjectionsHandler serves the expected-points projections directly, without
// running the optimizer.
type ProjectionsHandler struct {
	pipeline *pipeline.Pipeline
	logger   *logrus.Entry
}

// NewProjectionsHandler creates a new projections handler.
func NewProjectionsHandler(p *pipeline.Pipeline, logger *logrus.Entry) *ProjectionsHandler {
	return &ProjectionsHandler{pipeline: p, logger: logger}
}

// ProjectionsResponse wraps the projection list with its horizon window.
type ProjectionsResponse struct {
	StartGameweek int                      `json:"start_gameweek"`
	Projections   []types.PlayerProjection `json:"projections"`
}

// List handles GET /api/v1/projections. The optional min_points query filters
// out players below an expected-points floor, which keeps payloads small for
// browsing.
func (h *ProjectionsHandler) List(c *gin.Context) {
	forceRefresh := c.Query("refresh") == "true"
	snap, err := h.pipeline.Snapshot(c.Request.Context(), forceRefresh)
	if err != nil {
		h.logger.WithError(err).Error("Snapshot load failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "Failed to load FPL data",
			Code:  "UPSTREAM_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
		return
	}

	projections, startGW, err := h.pipeline.Project(c.Request.Context(), snap)
	if err != nil {
		if errors.Is(err, predictor.ErrNoUpcomingFixtures) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "No upcoming fixtures to project",
				Code:  "NO_UPCOMING_FIXTURES",
			})
			return
		}
		h.logger.WithError(err).Error("Projection failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Projection failed",
			Code:  "PROJECTION_ERROR",
		})
		return
	}

	if minStr := c.Query("min_points"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid min_points value",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		filtered := projections[:0:0]
		for _, p := range projections {
			if p.Total.TotalExpectedPoints >= min {
				filtered = append(filtered, p)
			}
		}
		projections = filtered
	}

	c.JSON(http.StatusOK, ProjectionsResponse{
		StartGameweek: startGW,
		Projections:   projections,
	})
}
