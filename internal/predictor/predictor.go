package predictor

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// ErrNoUpcomingFixtures is returned when the fixture list holds nothing left
// to predict.
var ErrNoUpcomingFixtures = errors.New("no upcoming fixtures to predict")

// Predictor runs the expected-points pipeline: per-90 normalization, team
// strengths, minutes, per-fixture scoring and horizon aggregation. The
// pipeline is synchronous; each stage fully consumes its predecessor's
// output, and re-running with identical inputs yields identical projections.
type Predictor struct {
	cfg     *config.Config
	log     *logrus.Entry
	stats   *StatsNormalizer
	minutes *MinutesModel
	horizon *HorizonAggregator
}

// New constructs a Predictor from an immutable configuration value.
func New(cfg *config.Config, log *logrus.Entry) *Predictor {
	stats := NewStatsNormalizer(cfg.Minutes, cfg.Confidence)
	return &Predictor{
		cfg:     cfg,
		log:     log,
		stats:   stats,
		minutes: NewMinutesModel(cfg.Minutes),
		horizon: NewHorizonAggregator(cfg.Solver.Horizon),
	}
}

// StartGameweek returns the gameweek of the earliest unfinished fixture.
func StartGameweek(fixtures []types.Fixture) (int, bool) {
	start, found := 0, false
	for _, f := range fixtures {
		if f.Finished || f.Gameweek <= 0 {
			continue
		}
		if !found || f.Gameweek < start {
			start, found = f.Gameweek, true
		}
	}
	return start, found
}

// ProjectAll produces an aggregated horizon projection for every player.
// Team strengths are derived from the finished fixtures in the same input;
// data-quality gaps (zero minutes, no fixture history) fall back to defaults
// and never fail the pipeline.
func (p *Predictor) ProjectAll(players []types.Player, teams []types.Team, fixtures []types.Fixture) ([]types.PlayerProjection, error) {
	startGW, ok := StartGameweek(fixtures)
	if !ok {
		return nil, ErrNoUpcomingFixtures
	}
	endGW := startGW + p.horizon.Horizon()

	strength := NewStrengthModel(teams, fixtures)
	score := NewScoreModel(p.cfg.Scoring, p.cfg.Probabilities, p.stats, p.minutes, strength)

	// Upcoming fixtures per team within the horizon, in gameweek order.
	upcoming := make(map[int][]types.Fixture)
	for _, f := range fixtures {
		if f.Finished || f.Gameweek < startGW || f.Gameweek >= endGW {
			continue
		}
		upcoming[f.HomeTeamID] = append(upcoming[f.HomeTeamID], f)
		upcoming[f.AwayTeamID] = append(upcoming[f.AwayTeamID], f)
	}
	for teamID := range upcoming {
		fs := upcoming[teamID]
		sort.Slice(fs, func(i, j int) bool { return fs[i].Gameweek < fs[j].Gameweek })
	}

	p.log.WithFields(logrus.Fields{
		"players":        len(players),
		"teams":          len(teams),
		"start_gameweek": startGW,
		"horizon":        p.horizon.Horizon(),
	}).Info("Projecting expected points")

	projections := make([]types.PlayerProjection, 0, len(players))
	for _, player := range players {
		periods := make([]types.PeriodProjection, 0, p.horizon.Horizon())
		for _, f := range upcoming[player.TeamID] {
			periods = append(periods, score.Project(player, f))
		}
		projections = append(projections, types.PlayerProjection{
			Player:  player,
			Periods: periods,
			Total:   p.horizon.Aggregate(player.ID, startGW, periods),
		})
	}

	sort.Slice(projections, func(i, j int) bool {
		return projections[i].Player.ID < projections[j].Player.ID
	})

	p.log.WithField("projections", len(projections)).Info("Expected points projection complete")
	return projections, nil
}
