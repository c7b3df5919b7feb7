package optimizer

import (
	"fmt"
	"sort"

	"fploptimizer/internal/types"
)

// Diagnose inspects a built model for structural causes of infeasibility
// before the solver runs, so reports can name the responsible constraint
// family instead of a bare "no solution". A nil return means no structural
// cause was found; the solver may still prove joint infeasibility, which is
// reported as a constraint interaction.
func Diagnose(m *Model) *InfeasibilityReport {
	counts := types.SquadPositionCounts()

	// Enforced players alone must not overflow the squad.
	if len(m.enforced) > types.SquadSize {
		return &InfeasibilityReport{
			Family: FamilySquadSize,
			Detail: fmt.Sprintf("%d players enforced but the squad holds %d", len(m.enforced), types.SquadSize),
		}
	}

	enforcedPos := make(map[types.Position]int)
	enforcedTeam := make(map[string]int)
	enforcedCost := 0
	for _, pp := range m.Players {
		if !m.enforced[pp.Player.ID] {
			continue
		}
		enforcedPos[pp.Player.Position]++
		enforcedTeam[pp.Player.Team]++
		enforcedCost += pp.Player.CostTenths
	}
	for _, pos := range types.Positions {
		if enforcedPos[pos] > counts[pos] {
			return &InfeasibilityReport{
				Family: FamilyPositionQuota,
				Detail: fmt.Sprintf("%d %s enforced but the quota is %d", enforcedPos[pos], pos, counts[pos]),
			}
		}
	}
	for team, n := range enforcedTeam {
		if n > m.constraints.MaxPerTeam {
			return &InfeasibilityReport{
				Family: FamilyTeamLimit,
				Detail: fmt.Sprintf("%d players enforced from %s but the per-team cap is %d", n, team, m.constraints.MaxPerTeam),
			}
		}
	}
	if enforcedCost > m.constraints.BudgetTenths {
		return &InfeasibilityReport{
			Family: FamilyBudget,
			Detail: fmt.Sprintf("enforced players cost %.1f, exceeding the %.1f budget", float64(enforcedCost)/10.0, m.constraints.BudgetMillions()),
		}
	}

	// Pool depth: every position quota must be coverable by selectable
	// players, and the per-team cap times the number of teams must admit a
	// full squad.
	poolPos := make(map[types.Position]int)
	poolTeams := make(map[string]bool)
	costsByPos := make(map[types.Position][]float64)
	for _, pp := range m.Players {
		if !m.selectable(pp.Player) {
			continue
		}
		poolPos[pp.Player.Position]++
		poolTeams[pp.Player.Team] = true
		if !m.enforced[pp.Player.ID] {
			costsByPos[pp.Player.Position] = append(costsByPos[pp.Player.Position], float64(pp.Player.CostTenths))
		}
	}
	for _, pos := range types.Positions {
		if poolPos[pos] < counts[pos] {
			return &InfeasibilityReport{
				Family: FamilyEligibility,
				Detail: fmt.Sprintf("only %d eligible %s remain but %d are required", poolPos[pos], pos, counts[pos]),
			}
		}
	}
	if len(poolTeams)*m.constraints.MaxPerTeam < types.SquadSize {
		return &InfeasibilityReport{
			Family: FamilyTeamLimit,
			Detail: fmt.Sprintf("%d teams with a cap of %d cannot fill %d slots", len(poolTeams), m.constraints.MaxPerTeam, types.SquadSize),
		}
	}

	// Enforced team/position minimums must be reachable from the pool.
	for _, r := range m.constraints.EnforcedTeamPositions {
		matched := 0
		for _, pp := range m.Players {
			if pp.Player.Team == r.Team && pp.Player.Position == r.Position && m.selectable(pp.Player) {
				matched++
			}
		}
		if matched < r.MinPlayers {
			return &InfeasibilityReport{
				Family: FamilyEnforcement,
				Detail: fmt.Sprintf("rule requires %d %s from %s but only %d are eligible", r.MinPlayers, r.Position, r.Team, matched),
			}
		}
	}

	// Cost lower bound: enforced players plus the cheapest remaining players
	// per position, ignoring the team cap. If even that exceeds the budget,
	// no squad fits.
	cheapest := float64(enforcedCost)
	for _, pos := range types.Positions {
		costs := costsByPos[pos]
		sort.Float64s(costs)
		for i := 0; i < counts[pos]-enforcedPos[pos]; i++ {
			cheapest += costs[i]
		}
	}
	if cheapest > float64(m.constraints.BudgetTenths) {
		return &InfeasibilityReport{
			Family: FamilyBudget,
			Detail: fmt.Sprintf("the cheapest legal squad costs %.1f, exceeding the %.1f budget", cheapest/10.0, m.constraints.BudgetMillions()),
		}
	}

	return nil
}
