package optimizer

import (
	"fmt"
	"sort"

	"fploptimizer/internal/types"
)

// Model is an integer program over one binary selection decision per eligible
// player. Rows are linear in the decisions; the solver backend adds the 0/1
// bounds itself.
type Model struct {
	// Players are the eligible players, index-aligned with the decisions.
	Players []types.PlayerProjection
	// Objective holds each player's aggregated expected points (maximize).
	Objective []float64

	eqRows [][]float64
	eqB    []float64
	leRows [][]float64
	leB    []float64

	// fixed pins a decision to a value (enforced players to 1, team/position
	// exclusions to 0). Pinned variables are substituted out of every LP
	// relaxation instead of being written as x=v equality rows: such a row
	// duplicates the variable's own 0/1 bound and leaves the simplex with a
	// singular basis.
	fixed map[int]float64

	// Audit lists every constraint row added, for explainability.
	Audit []string

	constraints types.Constraints
	enforced    map[int]bool             // player ids forced into the squad
	excludedTP  []types.TeamPositionRule // deduplicated team/position exclusions
}

func (m *Model) addEq(row []float64, b float64, audit string) {
	m.eqRows = append(m.eqRows, row)
	m.eqB = append(m.eqB, b)
	m.Audit = append(m.Audit, audit)
}

func (m *Model) addLe(row []float64, b float64, audit string) {
	m.leRows = append(m.leRows, row)
	m.leB = append(m.leB, b)
	m.Audit = append(m.Audit, audit)
}

func (m *Model) row() []float64 {
	return make([]float64, len(m.Players))
}

// selectable reports whether a player can actually be picked: eligible and
// not pinned to zero by a team/position exclusion rule.
func (m *Model) selectable(p types.Player) bool {
	for _, r := range m.excludedTP {
		if p.Team == r.Team && p.Position == r.Position {
			return false
		}
	}
	return true
}

// Build validates the constraint configuration against the projected player
// pool and assembles the integer program. Configuration errors (unknown
// enforced identifiers, enforced/excluded overlap) surface here, before any
// solving happens.
func Build(projections []types.PlayerProjection, cons types.Constraints) (*Model, error) {
	byID := make(map[int]types.PlayerProjection, len(projections))
	byName := make(map[string]types.PlayerProjection, len(projections))
	for _, pp := range projections {
		byID[pp.Player.ID] = pp
		byName[pp.Player.Name] = pp
	}

	excludedIDs := make(map[int]bool, len(cons.ExcludedIDs))
	for _, id := range cons.ExcludedIDs {
		excludedIDs[id] = true
	}
	excludedNames := make(map[string]bool, len(cons.ExcludedNames))
	for _, name := range cons.ExcludedNames {
		excludedNames[name] = true
	}

	m := &Model{constraints: cons, enforced: make(map[int]bool), fixed: make(map[int]float64)}

	// Deduplicate team/position exclusion rules.
	seenTP := make(map[string]bool)
	for _, r := range cons.ExcludedTeamPositions {
		key := r.Team + "/" + string(r.Position)
		if seenTP[key] {
			continue
		}
		seenTP[key] = true
		m.excludedTP = append(m.excludedTP, r)
	}

	excludedByRule := func(p types.Player) bool {
		return excludedIDs[p.ID] || excludedNames[p.Name] || !m.selectable(p)
	}

	// Resolve enforced players and reject unknown or contradictory rules.
	for _, id := range cons.EnforcedIDs {
		pp, ok := byID[id]
		if !ok {
			return nil, &ValidationError{Rule: "enforced player", Identifier: fmt.Sprintf("id %d", id), Reason: "not found among projected players"}
		}
		if excludedByRule(pp.Player) {
			return nil, &ValidationError{Rule: "enforced player", Identifier: pp.Player.Name, Reason: "also matched by an exclusion rule"}
		}
		m.enforced[id] = true
	}
	for _, name := range cons.EnforcedNames {
		pp, ok := byName[name]
		if !ok {
			return nil, &ValidationError{Rule: "enforced player", Identifier: name, Reason: "not found among projected players"}
		}
		if excludedByRule(pp.Player) {
			return nil, &ValidationError{Rule: "enforced player", Identifier: name, Reason: "also matched by an exclusion rule"}
		}
		m.enforced[pp.Player.ID] = true
	}

	// Eligibility: players excluded by id or name never receive a decision
	// variable. Team/position exclusions keep their variables and are pinned
	// to zero below, so the model itself documents the rule.
	for _, pp := range projections {
		if excludedIDs[pp.Player.ID] || excludedNames[pp.Player.Name] {
			continue
		}
		m.Players = append(m.Players, pp)
		m.Objective = append(m.Objective, pp.Total.TotalExpectedPoints)
	}
	if len(m.Players) == 0 {
		return nil, &ValidationError{Rule: "exclusion", Identifier: "player pool", Reason: "no players remain after exclusions"}
	}

	// Position quotas: exactly 2/5/5/3. Their sum pins the squad size to 15,
	// so a separate squad-size row would be linearly dependent; it is
	// recorded in the audit trail instead.
	for _, pos := range types.Positions {
		quota := types.SquadPositionCounts()[pos]
		row := m.row()
		for i, pp := range m.Players {
			if pp.Player.Position == pos {
				row[i] = 1
			}
		}
		m.addEq(row, float64(quota), fmt.Sprintf("position %s = %d", pos, quota))
	}
	m.Audit = append(m.Audit, fmt.Sprintf("squad size = %d (implied by position quotas)", types.SquadSize))

	// Budget ceiling over fixed-point costs.
	costRow := m.row()
	for i, pp := range m.Players {
		costRow[i] = float64(pp.Player.CostTenths)
	}
	m.addLe(costRow, float64(cons.BudgetTenths), fmt.Sprintf("total cost <= %.1f", cons.BudgetMillions()))

	// Per-team cap. Rows are emitted in sorted team order so the assembled
	// model is identical run to run.
	teamSet := make(map[string]bool)
	for _, pp := range m.Players {
		teamSet[pp.Player.Team] = true
	}
	teams := make([]string, 0, len(teamSet))
	for team := range teamSet {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		row := m.row()
		for i, pp := range m.Players {
			if pp.Player.Team == team {
				row[i] = 1
			}
		}
		m.addLe(row, float64(cons.MaxPerTeam), fmt.Sprintf("team %s <= %d", team, cons.MaxPerTeam))
	}

	// Individually enforced players are pinned to 1.
	for i, pp := range m.Players {
		if m.enforced[pp.Player.ID] {
			m.fixed[i] = 1
			m.Audit = append(m.Audit, fmt.Sprintf("enforce %s", pp.Player.Name))
		}
	}

	// Enforced (team, position, min-count) rules.
	for _, r := range cons.EnforcedTeamPositions {
		row := m.row()
		matched := 0
		for i, pp := range m.Players {
			if pp.Player.Team == r.Team && pp.Player.Position == r.Position && m.selectable(pp.Player) {
				row[i] = -1
				matched++
			}
		}
		if matched == 0 {
			return nil, &ValidationError{
				Rule:       "enforced team/position",
				Identifier: fmt.Sprintf("%s/%s", r.Team, r.Position),
				Reason:     "no eligible players match",
			}
		}
		// sum >= min written as -sum <= -min.
		m.addLe(row, -float64(r.MinPlayers), fmt.Sprintf("at least %d %s from %s", r.MinPlayers, r.Position, r.Team))
	}

	// Team/position exclusions pin every matching variable to 0. The
	// variables stay in the model so the audit trail documents the rule.
	for _, r := range m.excludedTP {
		matched := 0
		for i, pp := range m.Players {
			if pp.Player.Team == r.Team && pp.Player.Position == r.Position {
				m.fixed[i] = 0
				matched++
			}
		}
		if matched > 0 {
			m.Audit = append(m.Audit, fmt.Sprintf("exclude all %s from %s", r.Position, r.Team))
		} else {
			m.Audit = append(m.Audit, fmt.Sprintf("exclude all %s from %s (no matching players)", r.Position, r.Team))
		}
	}

	return m, nil
}
