package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// newNeutralScoreModel builds a score model with every fixture multiplier at
// 1.0 (no finished fixtures means neutral strengths).
func newNeutralScoreModel() *ScoreModel {
	cfg := config.Default()
	stats := NewStatsNormalizer(cfg.Minutes, cfg.Confidence)
	minutes := NewMinutesModel(cfg.Minutes)
	strength := NewStrengthModel([]types.Team{{ID: 1}, {ID: 2}}, nil)
	return NewScoreModel(cfg.Scoring, cfg.Probabilities, stats, minutes, strength)
}

func testFixture() types.Fixture {
	return types.Fixture{ID: 10, Gameweek: 5, HomeTeamID: 1, AwayTeamID: 2}
}

func provenMidfielder() types.Player {
	// 2700 minutes over 30 appearances: a nailed-on 90-minute starter.
	return types.Player{
		ID:            7,
		TeamID:        1,
		Position:      types.PositionMID,
		Status:        "a",
		TotalPoints:   120,
		PointsPerGame: 4.0,
		Stats: types.PlayerStats{
			Minutes: 2700,
			Goals:   15,
			Assists: 9,
			BPS:     810,
		},
	}
}

func TestProject_UnavailablePlayerScoresZero(t *testing.T) {
	s := newNeutralScoreModel()
	p := provenMidfielder()
	p.Status = "i"

	proj := s.Project(p, testFixture())
	assert.Equal(t, 0.0, proj.ExpectedMinutes)
	assert.Equal(t, 0.0, proj.ExpectedPoints)
	assert.Equal(t, types.Contribution{}, proj.Breakdown)
}

func TestProject_ProvenMidfielder(t *testing.T) {
	s := newNeutralScoreModel()

	proj := s.Project(provenMidfielder(), testFixture())
	require.InDelta(t, 90.0, proj.ExpectedMinutes, 1e-9)
	assert.Equal(t, 5, proj.Gameweek)
	assert.Equal(t, 1.0, proj.Confidence)

	b := proj.Breakdown
	assert.InDelta(t, 2.0, b.Appearance, 1e-9)
	assert.InDelta(t, 2.5, b.Goals, 1e-9, "0.5 goals per 90 at 5 points per goal")
	assert.InDelta(t, 0.9, b.Assists, 1e-9)
	assert.InDelta(t, 0.3, b.CleanSheet, 1e-9, "baseline 0.30 at 1 point for midfielders")
	assert.Equal(t, 0.0, b.GoalsConceded, "midfielders lose nothing for conceding")
	assert.Equal(t, 0.0, b.Saves)
	assert.InDelta(t, 0.135, b.Bonus, 1e-9, "27 BPS per 90 at the bonus scaling factor")
	assert.InDelta(t, -0.089, b.Deductions, 1e-9)

	assert.InDelta(t, b.Total(), proj.ExpectedPoints, 1e-9, "breakdown must sum to the total")
}

func TestProject_GoalkeeperContributions(t *testing.T) {
	s := newNeutralScoreModel()
	gk := types.Player{
		ID:            1,
		TeamID:        1,
		Position:      types.PositionGK,
		Status:        "a",
		TotalPoints:   120,
		PointsPerGame: 4.0,
		Stats: types.PlayerStats{
			Minutes:        2700,
			Saves:          90,
			PenaltiesSaved: 3,
		},
	}

	proj := s.Project(gk, testFixture())
	b := proj.Breakdown
	assert.InDelta(t, 1.0, b.Saves, 1e-9, "3 saves per 90 earns one save bucket")
	assert.InDelta(t, 1.2, b.CleanSheet, 1e-9, "baseline 0.30 at 4 points")
	assert.InDelta(t, -0.675, b.GoalsConceded, 1e-9, "1.35 expected conceded halves to -0.675")
	assert.InDelta(t, 0.5, b.PenaltySaves, 1e-9, "0.1 penalty saves per 90 at 5 points")
	assert.InDelta(t, b.Total(), proj.ExpectedPoints, 1e-9)
}

func TestProject_DefensiveContributionThreshold(t *testing.T) {
	s := newNeutralScoreModel()
	def := types.Player{
		ID:            4,
		TeamID:        1,
		Position:      types.PositionDEF,
		Status:        "a",
		TotalPoints:   120,
		PointsPerGame: 4.0,
		Stats: types.PlayerStats{
			Minutes:               2700,
			DefensiveContribution: 300,
		},
	}

	proj := s.Project(def, testFixture())
	// 10 defensive actions per 90 meets the DEF threshold exactly.
	assert.InDelta(t, 2.0, proj.Breakdown.DefensiveContribution, 1e-9)
}

func TestProject_AppearancePointsInterpolate(t *testing.T) {
	s := newNeutralScoreModel()

	// A sub expectation of 15 minutes sits a quarter of the way to the
	// 60-minute band.
	sub := types.Player{
		ID:       9,
		TeamID:   1,
		Position: types.PositionFWD,
		Status:   "a",
		Stats:    types.PlayerStats{Minutes: 1000},
	}
	proj := s.Project(sub, testFixture())
	require.InDelta(t, 15.0, proj.ExpectedMinutes, 1e-9)
	assert.InDelta(t, 1.25, proj.Breakdown.Appearance, 1e-9)
}

func TestProject_ProbabilitiesAreClamped(t *testing.T) {
	s := newNeutralScoreModel()

	// A proven player with an absurd 3-goals-per-90 rate: the per-fixture
	// goal probability caps at 1, so the contribution caps at the per-goal
	// points value.
	p := types.Player{
		ID:            8,
		TeamID:        1,
		Position:      types.PositionFWD,
		Status:        "a",
		TotalPoints:   120,
		PointsPerGame: 4.0,
		Stats:         types.PlayerStats{Minutes: 2700, Goals: 90, Assists: 90},
	}
	proj := s.Project(p, testFixture())
	assert.InDelta(t, 4.0, proj.Breakdown.Goals, 1e-9)
	assert.InDelta(t, 3.0, proj.Breakdown.Assists, 1e-9)
}

func TestProject_NoFixtureMeansZero(t *testing.T) {
	s := newNeutralScoreModel()
	p := provenMidfielder()
	p.TeamID = 42 // not in the fixture

	proj := s.Project(p, testFixture())
	assert.Equal(t, 0.0, proj.ExpectedPoints)
}
