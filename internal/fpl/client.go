package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"fploptimizer/internal/types"
)

// Client fetches the public FPL endpoints. Calls go through a circuit breaker
// so a flapping upstream fails fast instead of hammering the API, and each
// request retries transient failures with linear backoff.
type Client struct {
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker
	logger        *logrus.Entry
	baseURL       string
	retryAttempts int
}

// NewClient builds a client against the given base URL
// (e.g. https://fantasy.premierleague.com/api).
func NewClient(baseURL string, logger *logrus.Entry) *Client {
	settings := gobreaker.Settings{
		Name:    "fpl-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:       gobreaker.NewCircuitBreaker(settings),
		logger:        logger,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		retryAttempts: 3,
	}
}

// FetchSnapshot retrieves bootstrap-static and fixtures and converts them to
// one consistent domain snapshot.
func (c *Client) FetchSnapshot(ctx context.Context) (*types.DataSnapshot, error) {
	var bootstrap bootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	var fixtures []apiFixture
	if err := c.getJSON(ctx, "/fixtures/", &fixtures); err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	snap, err := toSnapshot(bootstrap, fixtures)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"players":  len(snap.Players),
		"teams":    len(snap.Teams),
		"fixtures": len(snap.Fixtures),
	}).Info("Fetched FPL snapshot")
	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, path)
		})
		if err == nil {
			return json.Unmarshal(body.([]byte), out)
		}
		lastErr = err
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt,
		}).Warn("FPL request failed")
		if attempt < c.retryAttempts {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.retryAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// toSnapshot maps the wire types onto the domain model. Players with an
// unknown element_type (e.g. managers) are skipped rather than failing the
// whole snapshot.
func toSnapshot(bootstrap bootstrapResponse, fixtures []apiFixture) (*types.DataSnapshot, error) {
	if len(bootstrap.Elements) == 0 {
		return nil, fmt.Errorf("bootstrap data contains no players")
	}

	teamNames := make(map[int]string, len(bootstrap.Teams))
	teams := make([]types.Team, 0, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teamNames[t.ID] = t.Name
		teams = append(teams, types.Team{ID: t.ID, Name: t.Name, ShortName: t.ShortName})
	}

	players := make([]types.Player, 0, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		pos, ok := types.PositionFromElementType(e.ElementType)
		if !ok {
			continue
		}
		ppg, _ := strconv.ParseFloat(e.PointsPerGame, 64)
		players = append(players, types.Player{
			ID:            e.ID,
			Name:          strings.TrimSpace(e.FirstName + " " + e.SecondName),
			WebName:       e.WebName,
			TeamID:        e.Team,
			Team:          teamNames[e.Team],
			Position:      pos,
			CostTenths:    e.NowCost,
			Status:        e.Status,
			News:          e.News,
			TotalPoints:   e.TotalPoints,
			PointsPerGame: ppg,
			Stats: types.PlayerStats{
				Minutes:               e.Minutes,
				Goals:                 e.GoalsScored,
				Assists:               e.Assists,
				CleanSheets:           e.CleanSheets,
				GoalsConceded:         e.GoalsConceded,
				Saves:                 e.Saves,
				PenaltiesSaved:        e.PenaltiesSaved,
				PenaltiesMissed:       e.PenaltiesMissed,
				YellowCards:           e.YellowCards,
				RedCards:              e.RedCards,
				OwnGoals:              e.OwnGoals,
				Bonus:                 e.Bonus,
				BPS:                   e.BPS,
				DefensiveContribution: e.DefensiveContribution,
			},
		})
	}

	domainFixtures := make([]types.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Event == nil {
			// Unscheduled fixture; it belongs to no gameweek yet.
			continue
		}
		df := types.Fixture{
			ID:             f.ID,
			Gameweek:       *f.Event,
			HomeTeamID:     f.TeamH,
			AwayTeamID:     f.TeamA,
			HomeDifficulty: f.TeamHDiff,
			AwayDifficulty: f.TeamADiff,
			Finished:       f.Finished,
		}
		if f.Finished && f.TeamHScore != nil && f.TeamAScore != nil {
			df.HomeGoals = *f.TeamHScore
			df.AwayGoals = *f.TeamAScore
		}
		domainFixtures = append(domainFixtures, df)
	}

	return &types.DataSnapshot{
		Players:   players,
		Teams:     teams,
		Fixtures:  domainFixtures,
		FetchedAt: time.Now().UTC(),
	}, nil
}
