package fpl

// Wire types for the two public FPL endpoints: bootstrap-static/ (players and
// teams) and fixtures/. Field names follow the upstream JSON; nullable
// upstream fields use pointers. The gameweek calendar is derived from the
// fixtures themselves, so the bootstrap events array is left unparsed.

type bootstrapResponse struct {
	Teams    []apiTeam    `json:"teams"`
	Elements []apiElement `json:"elements"`
}

type apiTeam struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// apiElement is one player row. now_cost is in tenths of a million and
// points_per_game arrives as a decimal string.
type apiElement struct {
	ID            int    `json:"id"`
	FirstName     string `json:"first_name"`
	SecondName    string `json:"second_name"`
	WebName       string `json:"web_name"`
	Team          int    `json:"team"`
	ElementType   int    `json:"element_type"`
	NowCost       int    `json:"now_cost"`
	Status        string `json:"status"`
	News          string `json:"news"`
	TotalPoints   int    `json:"total_points"`
	PointsPerGame string `json:"points_per_game"`

	Minutes               int     `json:"minutes"`
	GoalsScored           int     `json:"goals_scored"`
	Assists               int     `json:"assists"`
	CleanSheets           int     `json:"clean_sheets"`
	GoalsConceded         int     `json:"goals_conceded"`
	OwnGoals              int     `json:"own_goals"`
	PenaltiesSaved        int     `json:"penalties_saved"`
	PenaltiesMissed       int     `json:"penalties_missed"`
	YellowCards           int     `json:"yellow_cards"`
	RedCards              int     `json:"red_cards"`
	Saves                 int     `json:"saves"`
	Bonus                 int     `json:"bonus"`
	BPS                   int     `json:"bps"`
	DefensiveContribution float64 `json:"defensive_contribution"`
}

type apiFixture struct {
	ID           int     `json:"id"`
	Event        *int    `json:"event"`
	TeamH        int     `json:"team_h"`
	TeamA        int     `json:"team_a"`
	TeamHScore   *int    `json:"team_h_score"`
	TeamAScore   *int    `json:"team_a_score"`
	TeamHDiff    int     `json:"team_h_difficulty"`
	TeamADiff    int     `json:"team_a_difficulty"`
	Finished     bool    `json:"finished"`
	FinishedProv bool    `json:"finished_provisional"`
	KickoffTime  *string `json:"kickoff_time"`
}
