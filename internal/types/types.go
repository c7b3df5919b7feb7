package types

import "time"

// Position is an FPL squad position.
type Position string

const (
	PositionGK  Position = "GK"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// Positions lists all squad positions in display order.
var Positions = []Position{PositionGK, PositionDEF, PositionMID, PositionFWD}

// PositionFromElementType maps the FPL API element_type to a Position.
func PositionFromElementType(elementType int) (Position, bool) {
	switch elementType {
	case 1:
		return PositionGK, true
	case 2:
		return PositionDEF, true
	case 3:
		return PositionMID, true
	case 4:
		return PositionFWD, true
	}
	return "", false
}

// SquadPositionCounts returns the fixed 15-player squad composition.
func SquadPositionCounts() map[Position]int {
	return map[Position]int{
		PositionGK:  2,
		PositionDEF: 5,
		PositionMID: 5,
		PositionFWD: 3,
	}
}

// SquadSize is the total number of players in a legal FPL squad.
const SquadSize = 15

// PlayerStats holds a player's raw season-to-date totals.
type PlayerStats struct {
	Minutes               int     `json:"minutes"`
	Goals                 int     `json:"goals_scored"`
	Assists               int     `json:"assists"`
	CleanSheets           int     `json:"clean_sheets"`
	GoalsConceded         int     `json:"goals_conceded"`
	Saves                 int     `json:"saves"`
	PenaltiesSaved        int     `json:"penalties_saved"`
	PenaltiesMissed       int     `json:"penalties_missed"`
	YellowCards           int     `json:"yellow_cards"`
	RedCards              int     `json:"red_cards"`
	OwnGoals              int     `json:"own_goals"`
	Bonus                 int     `json:"bonus"`
	BPS                   int     `json:"bps"`
	DefensiveContribution float64 `json:"defensive_contribution"`
}

// Player is one FPL player, immutable within an optimization run.
// CostTenths is the FPL "now_cost" fixed-point unit: tenths of a million.
type Player struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	WebName       string      `json:"web_name"`
	TeamID        int         `json:"team_id"`
	Team          string      `json:"team"`
	Position      Position    `json:"position"`
	CostTenths    int         `json:"cost_tenths"`
	Status        string      `json:"status"`
	News          string      `json:"news"`
	TotalPoints   int         `json:"total_points"`
	PointsPerGame float64     `json:"points_per_game"`
	Stats         PlayerStats `json:"stats"`
}

// CostMillions converts the fixed-point cost to millions for reporting.
func (p Player) CostMillions() float64 {
	return float64(p.CostTenths) / 10.0
}

// TeamStrength holds normalized attack/defence indices, split home/away.
// 1.0 is league average; 1.3 means 30% stronger than average in that split.
type TeamStrength struct {
	AttackHome  float64 `json:"attack_home"`
	AttackAway  float64 `json:"attack_away"`
	DefenceHome float64 `json:"defence_home"`
	DefenceAway float64 `json:"defence_away"`
}

// NeutralStrength is the league-average fallback for teams with no history.
func NeutralStrength() TeamStrength {
	return TeamStrength{AttackHome: 1.0, AttackAway: 1.0, DefenceHome: 1.0, DefenceAway: 1.0}
}

// Team is one Premier League team.
type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Fixture is one match. Gameweek is the FPL event number. HomeGoals and
// AwayGoals are only meaningful when Finished is true.
type Fixture struct {
	ID             int  `json:"id"`
	Gameweek       int  `json:"gameweek"`
	HomeTeamID     int  `json:"home_team_id"`
	AwayTeamID     int  `json:"away_team_id"`
	HomeDifficulty int  `json:"home_difficulty"`
	AwayDifficulty int  `json:"away_difficulty"`
	Finished       bool `json:"finished"`
	HomeGoals      int  `json:"home_goals"`
	AwayGoals      int  `json:"away_goals"`
}

// Involves reports whether the team plays in this fixture.
func (f Fixture) Involves(teamID int) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// OpponentOf returns the opposing team id and whether teamID plays at home.
func (f Fixture) OpponentOf(teamID int) (opponentID int, home bool) {
	if f.HomeTeamID == teamID {
		return f.AwayTeamID, true
	}
	return f.HomeTeamID, false
}

// Contribution decomposes a period projection into the probability-weighted
// point sources that sum to its total.
type Contribution struct {
	Appearance            float64 `json:"appearance"`
	Goals                 float64 `json:"goals"`
	Assists               float64 `json:"assists"`
	CleanSheet            float64 `json:"clean_sheet"`
	GoalsConceded         float64 `json:"goals_conceded"`
	Saves                 float64 `json:"saves"`
	PenaltySaves          float64 `json:"penalty_saves"`
	Bonus                 float64 `json:"bonus"`
	DefensiveContribution float64 `json:"defensive_contribution"`
	Deductions            float64 `json:"deductions"`
}

// Total sums the decomposed contributions.
func (c Contribution) Total() float64 {
	return c.Appearance + c.Goals + c.Assists + c.CleanSheet + c.GoalsConceded +
		c.Saves + c.PenaltySaves + c.Bonus + c.DefensiveContribution + c.Deductions
}

// PeriodProjection is one (player, gameweek) expected-points forecast.
// Never mutated after creation.
type PeriodProjection struct {
	PlayerID        int          `json:"player_id"`
	Gameweek        int          `json:"gameweek"`
	ExpectedMinutes float64      `json:"expected_minutes"`
	ExpectedPoints  float64      `json:"expected_points"`
	Confidence      float64      `json:"confidence"`
	Breakdown       Contribution `json:"breakdown"`
}

// AggregatedProjection is a player's total expected points across the horizon.
type AggregatedProjection struct {
	PlayerID            int             `json:"player_id"`
	TotalExpectedPoints float64         `json:"total_expected_points"`
	ByGameweek          map[int]float64 `json:"by_gameweek"`
}

// PlayerProjection bundles a player with its horizon forecast for the optimizer.
type PlayerProjection struct {
	Player  Player               `json:"player"`
	Periods []PeriodProjection   `json:"periods"`
	Total   AggregatedProjection `json:"total"`
}

// TeamPositionRule scopes a constraint to all players of a team and position.
// MinPlayers only applies to enforcement rules; exclusion rules ignore it.
type TeamPositionRule struct {
	Team       string   `json:"team"`
	Position   Position `json:"position"`
	MinPlayers int      `json:"min_players,omitempty"`
}

// Constraints is the externally supplied constraint configuration.
// Never mutated by the pipeline.
type Constraints struct {
	BudgetTenths int `json:"budget_tenths"`
	MaxPerTeam   int `json:"max_per_team"`

	ExcludedIDs           []int              `json:"excluded_ids,omitempty"`
	ExcludedNames         []string           `json:"excluded_names,omitempty"`
	ExcludedTeamPositions []TeamPositionRule `json:"excluded_team_positions,omitempty"`

	EnforcedIDs           []int              `json:"enforced_ids,omitempty"`
	EnforcedNames         []string           `json:"enforced_names,omitempty"`
	EnforcedTeamPositions []TeamPositionRule `json:"enforced_team_positions,omitempty"`
}

// BudgetMillions reports the budget ceiling in millions.
func (c Constraints) BudgetMillions() float64 {
	return float64(c.BudgetTenths) / 10.0
}

// SquadPlayer is one selected player with its optimizer-relevant attributes.
type SquadPlayer struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Team           string   `json:"team"`
	Position       Position `json:"position"`
	CostTenths     int      `json:"cost_tenths"`
	ExpectedPoints float64  `json:"expected_points"`
}

// SquadSelection is the optimizer's sole output artifact: exactly 15 players
// satisfying every constraint, with derived totals. Immutable once produced.
type SquadSelection struct {
	Players             []SquadPlayer `json:"players"`
	TotalCostTenths     int           `json:"total_cost_tenths"`
	TotalExpectedPoints float64       `json:"total_expected_points"`
}

// PositionCounts tallies selected players per position.
func (s SquadSelection) PositionCounts() map[Position]int {
	counts := make(map[Position]int, len(Positions))
	for _, p := range s.Players {
		counts[p.Position]++
	}
	return counts
}

// TeamCounts tallies selected players per team.
func (s SquadSelection) TeamCounts() map[string]int {
	counts := make(map[string]int)
	for _, p := range s.Players {
		counts[p.Team]++
	}
	return counts
}

// TotalCostMillions reports the squad cost in millions.
func (s SquadSelection) TotalCostMillions() float64 {
	return float64(s.TotalCostTenths) / 10.0
}

// DataSnapshot bundles one consistent fetch of the upstream FPL data: the
// player pool, the teams and the season's fixture list.
type DataSnapshot struct {
	Players   []Player  `json:"players"`
	Teams     []Team    `json:"teams"`
	Fixtures  []Fixture `json:"fixtures"`
	FetchedAt time.Time `json:"fetched_at"`
}
