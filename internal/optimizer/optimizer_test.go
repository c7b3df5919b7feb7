package optimizer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func newTestOptimizer(t *testing.T) *SquadOptimizer {
	t.Helper()
	rules := config.Default().Solver
	return New(rules, NewBranchAndBound(rules.MaxNodes, testLogger()), testLogger())
}

func proj(id int, name, team string, pos types.Position, costTenths int, points float64) types.PlayerProjection {
	return types.PlayerProjection{
		Player: types.Player{
			ID:         id,
			Name:       name,
			Team:       team,
			Position:   pos,
			CostTenths: costTenths,
		},
		Total: types.AggregatedProjection{PlayerID: id, TotalExpectedPoints: points},
	}
}

// testPool is a 22-player pool across 7 teams with distinct projected values,
// so the optimum is unique.
func testPool() []types.PlayerProjection {
	return []types.PlayerProjection{
		proj(1, "Raya", "Arsenal", types.PositionGK, 55, 25.0),
		proj(2, "Kepa", "Bournemouth", types.PositionGK, 45, 20.0),
		proj(3, "Sanchez", "Chelsea", types.PositionGK, 40, 15.0),

		proj(4, "Gabriel", "Arsenal", types.PositionDEF, 60, 28.0),
		proj(5, "Senesi", "Bournemouth", types.PositionDEF, 55, 26.0),
		proj(6, "Colwill", "Chelsea", types.PositionDEF, 50, 24.0),
		proj(7, "Tarkowski", "Everton", types.PositionDEF, 45, 22.0),
		proj(8, "Bassey", "Fulham", types.PositionDEF, 45, 21.0),
		proj(9, "Van Dijk", "Liverpool", types.PositionDEF, 40, 18.0),
		proj(10, "Burn", "Newcastle", types.PositionDEF, 40, 16.0),

		proj(11, "Saka", "Arsenal", types.PositionMID, 85, 40.0),
		proj(12, "Semenyo", "Bournemouth", types.PositionMID, 80, 38.0),
		proj(13, "Palmer", "Chelsea", types.PositionMID, 75, 35.0),
		proj(14, "Ndiaye", "Everton", types.PositionMID, 70, 32.0),
		proj(15, "Iwobi", "Fulham", types.PositionMID, 65, 30.0),
		proj(16, "Gakpo", "Liverpool", types.PositionMID, 60, 27.0),
		proj(17, "Gordon", "Newcastle", types.PositionMID, 55, 24.0),

		proj(18, "Beto", "Everton", types.PositionFWD, 90, 42.0),
		proj(19, "Muniz", "Fulham", types.PositionFWD, 80, 36.0),
		proj(20, "Ekitike", "Liverpool", types.PositionFWD, 70, 31.0),
		proj(21, "Woltemade", "Newcastle", types.PositionFWD, 60, 26.0),
		proj(22, "Gyokeres", "Arsenal", types.PositionFWD, 50, 22.0),
	}
}

func defaultConstraints() types.Constraints {
	return types.Constraints{BudgetTenths: 1000, MaxPerTeam: 3}
}

func requireLegalSquad(t *testing.T, sel *types.SquadSelection, cons types.Constraints) {
	t.Helper()
	require.Len(t, sel.Players, types.SquadSize)
	assert.Equal(t, types.SquadPositionCounts(), sel.PositionCounts())
	for team, n := range sel.TeamCounts() {
		assert.LessOrEqual(t, n, cons.MaxPerTeam, "team %s exceeds the cap", team)
	}
	assert.LessOrEqual(t, sel.TotalCostTenths, cons.BudgetTenths)
}

func TestOptimize_SelectsOptimalLegalSquad(t *testing.T) {
	opt := newTestOptimizer(t)

	result, err := opt.Optimize(context.Background(), testPool(), defaultConstraints())
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	require.NotNil(t, result.Selection)
	require.NotEmpty(t, result.RunID)

	requireLegalSquad(t, result.Selection, defaultConstraints())
	assert.InDelta(t, 450.0, result.Selection.TotalExpectedPoints, 1e-6)

	ids := make([]int, 0, types.SquadSize)
	for _, p := range result.Selection.Players {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []int{1, 2, 4, 5, 6, 7, 8, 11, 12, 13, 14, 15, 18, 19, 20}, ids)
}

func TestOptimize_IsDeterministic(t *testing.T) {
	opt := newTestOptimizer(t)

	first, err := opt.Optimize(context.Background(), testPool(), defaultConstraints())
	require.NoError(t, err)
	second, err := opt.Optimize(context.Background(), testPool(), defaultConstraints())
	require.NoError(t, err)

	require.Equal(t, StatusSolved, first.Status)
	require.Equal(t, StatusSolved, second.Status)
	assert.InDelta(t, first.Selection.TotalExpectedPoints, second.Selection.TotalExpectedPoints, 1e-9)
	assert.Equal(t, first.Selection.Players, second.Selection.Players)
	assert.NotEqual(t, first.RunID, second.RunID, "each run gets its own id")
}

func TestOptimize_TighterBudgetStillLegal(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.BudgetTenths = 900

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	requireLegalSquad(t, result.Selection, cons)
	assert.Less(t, result.Selection.TotalExpectedPoints, 450.0, "a tighter budget cannot beat the unconstrained optimum")
}

func TestOptimize_EnforcedPlayerAlwaysSelected(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedIDs = []int{17} // the weakest midfielder

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	requireLegalSquad(t, result.Selection, cons)

	found := false
	for _, p := range result.Selection.Players {
		if p.ID == 17 {
			found = true
		}
	}
	assert.True(t, found, "enforced player must appear in the squad")
	assert.InDelta(t, 444.0, result.Selection.TotalExpectedPoints, 1e-6,
		"enforcing the weakest midfielder displaces the cheapest-to-lose pick")
}

func TestOptimize_EnforcedPremiumPlayerSolvesEveryRun(t *testing.T) {
	// A 15.0m premium forward enforced under the full 100.0m budget is
	// comfortably satisfiable; every one of the repeated solves must come
	// back Solved with the same squad.
	opt := newTestOptimizer(t)
	pool := testPool()
	for i := range pool {
		if pool[i].Player.ID == 18 {
			pool[i].Player.CostTenths = 150
		}
	}
	cons := defaultConstraints()
	cons.EnforcedIDs = []int{18}

	var want []types.SquadPlayer
	for run := 0; run < 25; run++ {
		result, err := opt.Optimize(context.Background(), pool, cons)
		require.NoError(t, err)
		require.Equal(t, StatusSolved, result.Status, "run %d", run)
		requireLegalSquad(t, result.Selection, cons)

		found := false
		for _, p := range result.Selection.Players {
			if p.ID == 18 {
				found = true
			}
		}
		require.True(t, found, "run %d dropped the enforced player", run)

		if want == nil {
			want = result.Selection.Players
		} else {
			assert.Equal(t, want, result.Selection.Players, "run %d", run)
		}
	}
}

func TestOptimize_ExcludedPlayersNeverSelected(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.ExcludedIDs = []int{11}
	cons.ExcludedNames = []string{"Beto"}

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	requireLegalSquad(t, result.Selection, cons)

	for _, p := range result.Selection.Players {
		assert.NotEqual(t, 11, p.ID)
		assert.NotEqual(t, "Beto", p.Name)
	}
}

func TestOptimize_TeamPositionExclusion(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.ExcludedTeamPositions = []types.TeamPositionRule{
		{Team: "Arsenal", Position: types.PositionMID},
	}

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	requireLegalSquad(t, result.Selection, cons)

	for _, p := range result.Selection.Players {
		assert.False(t, p.Team == "Arsenal" && p.Position == types.PositionMID)
	}
	assert.InDelta(t, 437.0, result.Selection.TotalExpectedPoints, 1e-6,
		"losing Arsenal midfielders swaps in the next-best midfielder")
}

func TestOptimize_EnforcedTeamPositionMinimum(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedTeamPositions = []types.TeamPositionRule{
		{Team: "Newcastle", Position: types.PositionFWD, MinPlayers: 1},
	}

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	requireLegalSquad(t, result.Selection, cons)

	newcastleForwards := 0
	for _, p := range result.Selection.Players {
		if p.Team == "Newcastle" && p.Position == types.PositionFWD {
			newcastleForwards++
		}
	}
	assert.GreaterOrEqual(t, newcastleForwards, 1)
}

func TestOptimize_EnforcedCostExceedsBudget(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.BudgetTenths = 150
	cons.EnforcedIDs = []int{11, 12} // 8.5m + 8.0m

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, result.Status)
	require.NotNil(t, result.Infeasibility)
	assert.Equal(t, FamilyBudget, result.Infeasibility.Family)
	assert.Nil(t, result.Selection)
}

func TestOptimize_TooManyEnforcedFromOneTeam(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedIDs = []int{1, 4, 11, 22} // four Arsenal players, cap is 3

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, result.Status)
	require.NotNil(t, result.Infeasibility)
	assert.Equal(t, FamilyTeamLimit, result.Infeasibility.Family)
}

func TestOptimize_BudgetBelowCheapestSquad(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.BudgetTenths = 700 // the cheapest legal squad costs 81.0m

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, result.Status)
	require.NotNil(t, result.Infeasibility)
	assert.Equal(t, FamilyBudget, result.Infeasibility.Family)
}

func TestOptimize_PoolTooSmallAfterExclusions(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.ExcludedIDs = []int{1, 2} // only one goalkeeper remains

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, result.Status)
	require.NotNil(t, result.Infeasibility)
	assert.Equal(t, FamilyEligibility, result.Infeasibility.Family)
}

func TestOptimize_UnknownEnforcedPlayerIsValidationError(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedIDs = []int{999}

	result, err := opt.Optimize(context.Background(), testPool(), cons)
	require.Error(t, err)
	assert.Nil(t, result)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enforced player", verr.Rule)
}

func TestOptimize_EnforcedAndExcludedOverlapIsValidationError(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedIDs = []int{11}
	cons.ExcludedNames = []string{"Saka"}

	_, err := opt.Optimize(context.Background(), testPool(), cons)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enforced player", verr.Rule)
	assert.Contains(t, verr.Reason, "exclusion")
}

func TestOptimize_EnforcedTeamPositionWithoutMatchesIsValidationError(t *testing.T) {
	opt := newTestOptimizer(t)
	cons := defaultConstraints()
	cons.EnforcedTeamPositions = []types.TeamPositionRule{
		{Team: "Sunderland", Position: types.PositionFWD, MinPlayers: 1},
	}

	_, err := opt.Optimize(context.Background(), testPool(), cons)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enforced team/position", verr.Rule)
}
