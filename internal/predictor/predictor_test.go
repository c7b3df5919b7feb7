package predictor

import (
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

func TestStartGameweek(t *testing.T) {
	fixtures := []types.Fixture{
		{ID: 1, Gameweek: 1, Finished: true},
		{ID: 2, Gameweek: 3, Finished: false},
		{ID: 3, Gameweek: 2, Finished: false},
		{ID: 4, Gameweek: 0, Finished: false}, // unscheduled
	}
	gw, ok := StartGameweek(fixtures)
	require.True(t, ok)
	assert.Equal(t, 2, gw)

	_, ok = StartGameweek([]types.Fixture{{ID: 1, Gameweek: 1, Finished: true}})
	assert.False(t, ok)
}

func TestProjectAll_CoversEveryPlayerInOrder(t *testing.T) {
	cfg := config.Default()
	p := New(cfg, testLogger())

	teams := []types.Team{{ID: 1, Name: "Arsenal"}, {ID: 2, Name: "Chelsea"}, {ID: 3, Name: "Everton"}}
	players := []types.Player{
		{ID: 20, TeamID: 1, Position: types.PositionMID, Status: "a",
			TotalPoints: 120, PointsPerGame: 4.0,
			Stats: types.PlayerStats{Minutes: 2700, Goals: 10}},
		{ID: 5, TeamID: 2, Position: types.PositionFWD, Status: "a",
			Stats: types.PlayerStats{Minutes: 1000}},
		{ID: 9, TeamID: 3, Position: types.PositionDEF, Status: "a",
			Stats: types.PlayerStats{Minutes: 2700}},
	}
	fixtures := []types.Fixture{
		{ID: 1, Gameweek: 1, HomeTeamID: 1, AwayTeamID: 2, Finished: true, HomeGoals: 1, AwayGoals: 1},
		{ID: 2, Gameweek: 2, HomeTeamID: 1, AwayTeamID: 2, Finished: false},
		{ID: 3, Gameweek: 3, HomeTeamID: 2, AwayTeamID: 1, Finished: false},
		// Team 3 has no upcoming fixture inside the horizon.
	}

	projections, err := p.ProjectAll(players, teams, fixtures)
	require.NoError(t, err)
	require.Len(t, projections, 3, "every player gets a projection, fixtures or not")

	// Sorted by player id.
	assert.Equal(t, 5, projections[0].Player.ID)
	assert.Equal(t, 9, projections[1].Player.ID)
	assert.Equal(t, 20, projections[2].Player.ID)

	mid := projections[2]
	assert.Len(t, mid.Periods, 2)
	assert.Greater(t, mid.Total.TotalExpectedPoints, 0.0)
	assert.Len(t, mid.Total.ByGameweek, cfg.Solver.Horizon)

	noFixtures := projections[1]
	assert.Empty(t, noFixtures.Periods)
	assert.Equal(t, 0.0, noFixtures.Total.TotalExpectedPoints)
}

func TestProjectAll_NoUpcomingFixtures(t *testing.T) {
	p := New(config.Default(), testLogger())
	_, err := p.ProjectAll(nil, nil, []types.Fixture{{ID: 1, Gameweek: 1, Finished: true}})
	require.ErrorIs(t, err, ErrNoUpcomingFixtures)
}
