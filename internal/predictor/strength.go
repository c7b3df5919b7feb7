package predictor

import (
	"gonum.org/v1/gonum/stat"

	"fploptimizer/internal/types"
)

// StrengthModel derives per-team attack/defence strength indices from
// historical goals scored and conceded in finished fixtures, split by
// home/away. Indices are normalized so the league mean is 1.0 per split;
// teams with no history default to 1.0 rather than failing.
type StrengthModel struct {
	strengths map[int]types.TeamStrength
}

type splitRecord struct {
	homeGames, awayGames         int
	homeFor, homeAgainst         int
	awayFor, awayAgainst         int
}

// NewStrengthModel builds the model from all teams and historical fixtures.
func NewStrengthModel(teams []types.Team, fixtures []types.Fixture) *StrengthModel {
	records := make(map[int]*splitRecord, len(teams))
	for _, t := range teams {
		records[t.ID] = &splitRecord{}
	}

	for _, f := range fixtures {
		if !f.Finished {
			continue
		}
		if home, ok := records[f.HomeTeamID]; ok {
			home.homeGames++
			home.homeFor += f.HomeGoals
			home.homeAgainst += f.AwayGoals
		}
		if away, ok := records[f.AwayTeamID]; ok {
			away.awayGames++
			away.awayFor += f.AwayGoals
			away.awayAgainst += f.HomeGoals
		}
	}

	type rates struct {
		attackHome, attackAway, concedeHome, concedeAway float64
		hasHome, hasAway                                 bool
	}
	perTeam := make(map[int]rates, len(records))
	var attackHome, attackAway, concedeHome, concedeAway []float64
	for id, r := range records {
		var tr rates
		if r.homeGames > 0 {
			tr.hasHome = true
			tr.attackHome = float64(r.homeFor) / float64(r.homeGames)
			tr.concedeHome = float64(r.homeAgainst) / float64(r.homeGames)
			attackHome = append(attackHome, tr.attackHome)
			concedeHome = append(concedeHome, tr.concedeHome)
		}
		if r.awayGames > 0 {
			tr.hasAway = true
			tr.attackAway = float64(r.awayFor) / float64(r.awayGames)
			tr.concedeAway = float64(r.awayAgainst) / float64(r.awayGames)
			attackAway = append(attackAway, tr.attackAway)
			concedeAway = append(concedeAway, tr.concedeAway)
		}
		perTeam[id] = tr
	}

	leagueAttackHome := stat.Mean(attackHome, nil)
	leagueAttackAway := stat.Mean(attackAway, nil)
	leagueConcedeHome := stat.Mean(concedeHome, nil)
	leagueConcedeAway := stat.Mean(concedeAway, nil)

	// Attack strength scales with goals scored relative to the league.
	// Defence strength scales inversely with goals conceded: a team that
	// concedes half the league average defends twice as strongly.
	strengths := make(map[int]types.TeamStrength, len(perTeam))
	for id, tr := range perTeam {
		s := types.NeutralStrength()
		if tr.hasHome {
			s.AttackHome = ratio(tr.attackHome, leagueAttackHome)
			s.DefenceHome = ratio(leagueConcedeHome, tr.concedeHome)
		}
		if tr.hasAway {
			s.AttackAway = ratio(tr.attackAway, leagueAttackAway)
			s.DefenceAway = ratio(leagueConcedeAway, tr.concedeAway)
		}
		strengths[id] = s
	}

	return &StrengthModel{strengths: strengths}
}

// ratio guards the normalized index against degenerate zero rates: a zero
// numerator or denominator is floored at a quarter of the other side, so a
// team that never scored gets 0.25 and one that never conceded gets 4.0
// instead of zero or infinity.
func ratio(num, den float64) float64 {
	if num <= 0 && den <= 0 {
		return 1.0
	}
	if num <= 0 {
		num = 0.25 * den
	}
	if den <= 0 {
		den = 0.25 * num
	}
	return num / den
}

// Strength returns a team's indices, defaulting to league average.
func (m *StrengthModel) Strength(teamID int) types.TeamStrength {
	if s, ok := m.strengths[teamID]; ok {
		return s
	}
	return types.NeutralStrength()
}

// AttackMultiplier is the fixture multiplier for a player's attacking
// contributions: the opponent's defensive weakness in the relevant split.
func (m *StrengthModel) AttackMultiplier(playerTeamID int, f types.Fixture) float64 {
	opponentID, home := f.OpponentOf(playerTeamID)
	opp := m.Strength(opponentID)
	// The opponent of a home player defends in its away split.
	oppDefence := opp.DefenceAway
	if !home {
		oppDefence = opp.DefenceHome
	}
	if oppDefence <= 0 {
		return 1.0
	}
	return 1.0 / oppDefence
}

// OpponentAttackStrength is the fixture multiplier for a player's defensive
// outlook: the opponent's attacking strength in the relevant split. Strong
// opposing attacks depress clean-sheet probability and raise expected saves
// and goals conceded.
func (m *StrengthModel) OpponentAttackStrength(playerTeamID int, f types.Fixture) float64 {
	opponentID, home := f.OpponentOf(playerTeamID)
	opp := m.Strength(opponentID)
	if home {
		return opp.AttackAway
	}
	return opp.AttackHome
}
