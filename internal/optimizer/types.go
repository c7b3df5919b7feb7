package optimizer

import (
	"errors"
	"fmt"
	"time"

	"fploptimizer/internal/types"
)

// Status is the optimizer state machine: Unsolved -> Building -> Solved | Infeasible,
// with Failed reserved for solver breakdowns (timeout, numerics, node limit)
// that must never be mistaken for proven infeasibility.
type Status string

const (
	StatusUnsolved   Status = "unsolved"
	StatusBuilding   Status = "building"
	StatusSolved     Status = "solved"
	StatusInfeasible Status = "infeasible"
	StatusFailed     Status = "failed"
)

// ConstraintFamily names the constraint group most likely responsible for an
// infeasible model.
type ConstraintFamily string

const (
	FamilySquadSize     ConstraintFamily = "squad_size"
	FamilyPositionQuota ConstraintFamily = "position_quota"
	FamilyBudget        ConstraintFamily = "budget"
	FamilyTeamLimit     ConstraintFamily = "team_limit"
	FamilyEnforcement   ConstraintFamily = "enforcement"
	FamilyEligibility   ConstraintFamily = "eligibility"
	FamilyInteraction   ConstraintFamily = "interaction"
)

// InfeasibilityReport is the structured terminal result for a model with no
// satisfying assignment. It is a value, not an exception: callers branch on
// it as ordinary control flow.
type InfeasibilityReport struct {
	Family ConstraintFamily `json:"family"`
	Detail string           `json:"detail"`
}

func (r InfeasibilityReport) String() string {
	return fmt.Sprintf("%s: %s", r.Family, r.Detail)
}

// ValidationError reports a configuration problem detected before the model
// is built, naming the offending identifier.
type ValidationError struct {
	Rule       string
	Identifier string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s rule for %q: %s", e.Rule, e.Identifier, e.Reason)
}

// Sentinel errors separating "no solution exists" from "the solve did not
// complete".
var (
	ErrInfeasible    = errors.New("model is infeasible")
	ErrSolverFailure = errors.New("solver failure")
)

// Result is the optimizer's sole output artifact.
type Result struct {
	Status        Status                `json:"status"`
	RunID         string                `json:"run_id"`
	Selection     *types.SquadSelection `json:"selection,omitempty"`
	Infeasibility *InfeasibilityReport  `json:"infeasibility,omitempty"`
	Failure       string                `json:"failure,omitempty"`
	Elapsed       time.Duration         `json:"elapsed_ns"`
}

// Solution is a raw solver answer: selected indices into the model's
// eligible-player slice plus the objective value.
type Solution struct {
	Objective float64
	Selected  []int
}
