package optimizer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// SquadOptimizer turns player projections and a constraint configuration into
// a squad selection. Each Optimize call walks the state machine once:
// building -> solved | infeasible | failed. Configuration errors abort before
// the model exists and are returned as ordinary errors, never as a Result.
type SquadOptimizer struct {
	rules  config.SolverRules
	solver Solver
	log    *logrus.Entry
}

// New wires the optimizer to a solver backend.
func New(rules config.SolverRules, solver Solver, log *logrus.Entry) *SquadOptimizer {
	return &SquadOptimizer{rules: rules, solver: solver, log: log}
}

// Optimize builds and solves the selection model. The returned Result is
// terminal: Solved carries the squad, Infeasible carries a structured report
// naming the responsible constraint family, Failed carries the solver error.
// Solving with unchanged inputs returns a squad with the identical objective
// value.
func (o *SquadOptimizer) Optimize(ctx context.Context, projections []types.PlayerProjection, cons types.Constraints) (*Result, error) {
	runID := uuid.NewString()
	log := o.log.WithFields(logrus.Fields{"run_id": runID, "players": len(projections)})
	start := time.Now()

	result := &Result{Status: StatusBuilding, RunID: runID}

	model, err := Build(projections, cons)
	if err != nil {
		return nil, err
	}
	log.WithField("constraints", len(model.Audit)).Info("Selection model built")

	if report := Diagnose(model); report != nil {
		result.Status = StatusInfeasible
		result.Infeasibility = report
		result.Elapsed = time.Since(start)
		log.WithField("family", report.Family).Warn("Selection model infeasible before solving")
		return result, nil
	}

	solveCtx := ctx
	if o.rules.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, o.rules.Timeout)
		defer cancel()
	}

	sol, err := o.solver.Solve(solveCtx, model)
	result.Elapsed = time.Since(start)
	switch {
	case errors.Is(err, ErrInfeasible):
		result.Status = StatusInfeasible
		result.Infeasibility = &InfeasibilityReport{
			Family: FamilyInteraction,
			Detail: "no single constraint family is violated; the constraints are jointly unsatisfiable",
		}
		log.Warn("Solver proved joint infeasibility")
		return result, nil
	case err != nil:
		result.Status = StatusFailed
		result.Failure = err.Error()
		log.WithError(err).Error("Solver failed")
		return result, nil
	}

	result.Status = StatusSolved
	result.Selection = o.assemble(model, sol)
	log.WithFields(logrus.Fields{
		"expected_points": result.Selection.TotalExpectedPoints,
		"total_cost":      result.Selection.TotalCostMillions(),
		"elapsed":         result.Elapsed,
	}).Info("Squad selected")
	return result, nil
}

// assemble converts solver indices into the output squad, ordered by position
// (GK, DEF, MID, FWD) and by descending expected points within a position.
func (o *SquadOptimizer) assemble(model *Model, sol *Solution) *types.SquadSelection {
	posOrder := make(map[types.Position]int, len(types.Positions))
	for i, pos := range types.Positions {
		posOrder[pos] = i
	}

	sel := &types.SquadSelection{
		TotalExpectedPoints: sol.Objective,
	}
	for _, idx := range sol.Selected {
		pp := model.Players[idx]
		sel.Players = append(sel.Players, types.SquadPlayer{
			ID:             pp.Player.ID,
			Name:           pp.Player.Name,
			Team:           pp.Player.Team,
			Position:       pp.Player.Position,
			CostTenths:     pp.Player.CostTenths,
			ExpectedPoints: pp.Total.TotalExpectedPoints,
		})
		sel.TotalCostTenths += pp.Player.CostTenths
	}

	sort.Slice(sel.Players, func(i, j int) bool {
		pi, pj := sel.Players[i], sel.Players[j]
		if posOrder[pi.Position] != posOrder[pj.Position] {
			return posOrder[pi.Position] < posOrder[pj.Position]
		}
		if pi.ExpectedPoints != pj.ExpectedPoints {
			return pi.ExpectedPoints > pj.ExpectedPoints
		}
		return pi.ID < pj.ID
	})
	return sel
}
