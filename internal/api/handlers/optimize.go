package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fploptimizer/internal/config"
	"fploptimizer/internal/optimizer"
	"fploptimizer/internal/pipeline"
	"fploptimizer/internal/predictor"
	"fploptimizer/internal/types"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// OptimizeRequest carries per-request constraint overrides. Omitted fields
// fall back to the configured defaults.
type OptimizeRequest struct {
	BudgetMillions *float64 `json:"budget_millions,omitempty"`
	MaxPerTeam     *int     `json:"max_per_team,omitempty"`

	ExcludedIDs           []int                    `json:"excluded_ids,omitempty"`
	ExcludedNames         []string                 `json:"excluded_names,omitempty"`
	ExcludedTeamPositions []types.TeamPositionRule `json:"excluded_team_positions,omitempty"`

	EnforcedIDs           []int                    `json:"enforced_ids,omitempty"`
	EnforcedNames         []string                 `json:"enforced_names,omitempty"`
	EnforcedTeamPositions []types.TeamPositionRule `json:"enforced_team_positions,omitempty"`

	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// OptimizeHandler exposes the squad optimization pipeline over HTTP.
type OptimizeHandler struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *logrus.Entry
}

// NewOptimizeHandler creates a new optimize handler.
func NewOptimizeHandler(cfg *config.Config, p *pipeline.Pipeline, logger *logrus.Entry) *OptimizeHandler {
	return &OptimizeHandler{cfg: cfg, pipeline: p, logger: logger}
}

// Optimize handles POST /api/v1/optimize. Solved and infeasible runs are both
// 200 responses; infeasibility is a result, not a server error.
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	// An empty body means "use the configured defaults".
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request format",
				Code:  "INVALID_REQUEST",
				Details: map[string]string{
					"validation_error": err.Error(),
				},
			})
			return
		}
	}

	cons := h.constraints(req)
	result, err := h.pipeline.Run(c.Request.Context(), cons, req.ForceRefresh)
	if err != nil {
		var verr *optimizer.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid constraint configuration",
				Code:  "INVALID_CONSTRAINTS",
				Details: map[string]string{
					"rule":       verr.Rule,
					"identifier": verr.Identifier,
					"reason":     verr.Reason,
				},
			})
		case errors.Is(err, predictor.ErrNoUpcomingFixtures):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "No upcoming fixtures to optimize for",
				Code:  "NO_UPCOMING_FIXTURES",
			})
		default:
			h.logger.WithError(err).Error("Optimization pipeline failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Error: "Failed to load FPL data",
				Code:  "UPSTREAM_ERROR",
				Details: map[string]string{
					"error": err.Error(),
				},
			})
		}
		return
	}

	if result.Status == optimizer.StatusFailed {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Solver failed",
			Code:  "SOLVER_ERROR",
			Details: map[string]string{
				"run_id": result.RunID,
				"error":  result.Failure,
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// constraints merges request overrides over the configured defaults.
func (h *OptimizeHandler) constraints(req OptimizeRequest) types.Constraints {
	cons := h.cfg.Constraints()
	if req.BudgetMillions != nil {
		cons.BudgetTenths = int(*req.BudgetMillions*10 + 0.5)
	}
	if req.MaxPerTeam != nil {
		cons.MaxPerTeam = *req.MaxPerTeam
	}
	cons.ExcludedIDs = append(cons.ExcludedIDs, req.ExcludedIDs...)
	cons.ExcludedNames = append(cons.ExcludedNames, req.ExcludedNames...)
	cons.ExcludedTeamPositions = append(cons.ExcludedTeamPositions, req.ExcludedTeamPositions...)
	cons.EnforcedIDs = append(cons.EnforcedIDs, req.EnforcedIDs...)
	cons.EnforcedNames = append(cons.EnforcedNames, req.EnforcedNames...)
	cons.EnforcedTeamPositions = append(cons.EnforcedTeamPositions, req.EnforcedTeamPositions...)
	return cons
}
