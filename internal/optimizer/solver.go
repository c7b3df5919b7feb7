package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// intTol is the tolerance below which a relaxation value counts as integral.
const intTol = 1e-6

// Solver is the narrow capability the optimizer needs from a backend: take a
// built model, return the best integral solution or a terminal error. Swapping
// the branch-and-bound backend for an external MILP solver only requires a new
// implementation of this interface.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// BranchAndBound solves the binary program by depth-first branch and bound
// over LP relaxations. Branching is deterministic: the lowest-index fractional
// variable is chosen, and the round-up branch is explored first, so ties
// between equal-value squads always resolve the same way.
type BranchAndBound struct {
	maxNodes int
	log      *logrus.Entry
}

// NewBranchAndBound builds a backend with a node budget guarding against
// pathological search trees.
func NewBranchAndBound(maxNodes int, log *logrus.Entry) *BranchAndBound {
	return &BranchAndBound{maxNodes: maxNodes, log: log}
}

type varFix struct {
	idx int
	val float64
}

type searchNode struct {
	fixes []varFix
}

// Solve returns the maximum-value integral solution, ErrInfeasible when the
// root relaxation (and hence the model) has no solution, or a wrapped
// ErrSolverFailure on timeout, node exhaustion or LP breakdown.
func (s *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	n := len(m.Objective)
	stack := []searchNode{{}}
	var best *Solution
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSolverFailure, err)
		}
		nodes++
		if s.maxNodes > 0 && nodes > s.maxNodes {
			return nil, fmt.Errorf("%w: node budget %d exhausted", ErrSolverFailure, s.maxNodes)
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, x, err := s.relax(ctx, m, nd.fixes)
		if errors.Is(err, lp.ErrInfeasible) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrSolverFailure, ctx.Err())
			}
			return nil, fmt.Errorf("%w: lp relaxation: %v", ErrSolverFailure, err)
		}

		// Bound: the relaxation is an upper bound on any integral descendant.
		if best != nil && obj <= best.Objective+intTol {
			continue
		}

		branch := -1
		for i := 0; i < n; i++ {
			if x[i] > intTol && x[i] < 1-intTol {
				branch = i
				break
			}
		}
		if branch < 0 {
			sol := &Solution{Objective: 0}
			for i := 0; i < n; i++ {
				if x[i] > 0.5 {
					sol.Selected = append(sol.Selected, i)
					sol.Objective += m.Objective[i]
				}
			}
			if best == nil || sol.Objective > best.Objective {
				best = sol
			}
			continue
		}

		down := make([]varFix, len(nd.fixes), len(nd.fixes)+1)
		copy(down, nd.fixes)
		up := make([]varFix, len(nd.fixes), len(nd.fixes)+1)
		copy(up, nd.fixes)
		// LIFO stack: push the round-down branch first so the round-up
		// branch is explored first.
		stack = append(stack, searchNode{fixes: append(down, varFix{idx: branch, val: 0})})
		stack = append(stack, searchNode{fixes: append(up, varFix{idx: branch, val: 1})})
	}

	if best == nil {
		return nil, ErrInfeasible
	}

	sort.Ints(best.Selected)
	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"nodes":     nodes,
			"objective": best.Objective,
			"selected":  len(best.Selected),
		}).Debug("Branch and bound finished")
	}
	return best, nil
}

// relax solves the LP relaxation of the model with the node's branching fixes
// applied, returning the objective value and the full player assignment.
//
// Pinned variables (model-level enforcements and exclusions plus the node's
// fixes) are substituted out before the LP is assembled: their columns are
// dropped and their contributions folded into the right-hand sides. Writing
// them as x=v equality rows instead would duplicate each variable's own 0/1
// bound row and leave the simplex with a singular basis it cannot pivot out
// of.
//
// The reduced system goes to lp.Simplex in standard form: free variables are
// already nonnegative, each <= row gains a slack column, and each free
// variable's x <= 1 bound becomes its own slack row. Rows with a negative
// right-hand side are negated so b stays nonnegative. The simplex itself runs
// under the context so a wedged pivot sequence cannot outlive the solve-time
// budget.
func (s *BranchAndBound) relax(ctx context.Context, m *Model, fixes []varFix) (float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	n := len(m.Objective)
	fixed := make(map[int]float64, len(m.fixed)+len(fixes))
	for i, v := range m.fixed {
		fixed[i] = v
	}
	for _, f := range fixes {
		fixed[f.idx] = f.val
	}

	cols := make([]int, n) // variable index -> LP column, -1 when pinned
	free := 0
	for i := range cols {
		if _, ok := fixed[i]; ok {
			cols[i] = -1
		} else {
			cols[i] = free
			free++
		}
	}

	x := make([]float64, n)
	for i, v := range fixed {
		x[i] = v
	}
	if free == 0 {
		if !satisfies(m, x) {
			return 0, nil, lp.ErrInfeasible
		}
		return objectiveValue(m, x), x, nil
	}

	// Reduce each row to the free columns; rows whose free support is empty
	// are decided immediately.
	var (
		eqRows [][]float64
		eqB    []float64
		leRows [][]float64
		leB    []float64
	)
	for ri, row := range m.eqRows {
		red, rhs, support := reduceRow(row, m.eqB[ri], cols, fixed, free)
		if !support {
			if math.Abs(rhs) > intTol {
				return 0, nil, lp.ErrInfeasible
			}
			continue
		}
		eqRows = append(eqRows, red)
		eqB = append(eqB, rhs)
	}
	for ri, row := range m.leRows {
		red, rhs, support := reduceRow(row, m.leB[ri], cols, fixed, free)
		if !support {
			if rhs < -intTol {
				return 0, nil, lp.ErrInfeasible
			}
			continue
		}
		leRows = append(leRows, red)
		leB = append(leB, rhs)
	}

	numLe := len(leRows) + free // model <= rows plus one x <= 1 bound per free variable
	numRows := len(eqRows) + numLe
	numCols := free + numLe

	a := mat.NewDense(numRows, numCols, nil)
	b := make([]float64, numRows)
	c := make([]float64, numCols)
	for i := 0; i < n; i++ {
		if cols[i] >= 0 {
			c[cols[i]] = -m.Objective[i] // lp.Simplex minimizes
		}
	}

	r := 0
	for i, row := range eqRows {
		for j, v := range row {
			a.Set(r, j, v)
		}
		b[r] = eqB[i]
		r++
	}
	slack := free
	for i, row := range leRows {
		for j, v := range row {
			a.Set(r, j, v)
		}
		a.Set(r, slack, 1)
		b[r] = leB[i]
		slack++
		r++
	}
	for i := 0; i < free; i++ {
		a.Set(r, i, 1)
		a.Set(r, slack, 1)
		b[r] = 1
		slack++
		r++
	}

	for i := 0; i < numRows; i++ {
		if b[i] < 0 {
			for j := 0; j < numCols; j++ {
				a.Set(i, j, -a.At(i, j))
			}
			b[i] = -b[i]
		}
	}

	type lpResult struct {
		x   []float64
		err error
	}
	// Buffered so the worker can finish and exit even after the context wins
	// the select.
	done := make(chan lpResult, 1)
	go func() {
		_, xStd, err := lp.Simplex(c, a, b, 0, nil)
		done <- lpResult{x: xStd, err: err}
	}()

	var res lpResult
	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return 0, nil, res.err
	}

	for i := 0; i < n; i++ {
		if cols[i] >= 0 {
			x[i] = res.x[cols[i]]
		}
	}
	return objectiveValue(m, x), x, nil
}

// reduceRow projects one model row onto the free columns, folding pinned
// contributions into the right-hand side. support is false when no free
// variable appears in the row.
func reduceRow(row []float64, rhs float64, cols []int, fixed map[int]float64, free int) ([]float64, float64, bool) {
	red := make([]float64, free)
	support := false
	for j, v := range row {
		if v == 0 {
			continue
		}
		if cols[j] < 0 {
			rhs -= v * fixed[j]
		} else {
			red[cols[j]] = v
			support = true
		}
	}
	return red, rhs, support
}

// satisfies reports whether a fully pinned assignment meets every model row.
func satisfies(m *Model, x []float64) bool {
	for i, row := range m.eqRows {
		sum := 0.0
		for j, v := range row {
			sum += v * x[j]
		}
		if math.Abs(sum-m.eqB[i]) > intTol {
			return false
		}
	}
	for i, row := range m.leRows {
		sum := 0.0
		for j, v := range row {
			sum += v * x[j]
		}
		if sum > m.leB[i]+intTol {
			return false
		}
	}
	return true
}

func objectiveValue(m *Model, x []float64) float64 {
	obj := 0.0
	for i, v := range m.Objective {
		obj += v * x[i]
	}
	return obj
}
