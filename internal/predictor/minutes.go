package predictor

import (
	"strings"

	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// MinutesModel predicts expected minutes per player per gameweek from
// historical playing-time patterns. The graduated fallbacks avoid both
// overstating rotation players and zeroing out nominal starters with short
// season-to-date samples.
type MinutesModel struct {
	rules config.MinutesRules
}

// NewMinutesModel builds a minutes model from the configured defaults.
func NewMinutesModel(rules config.MinutesRules) *MinutesModel {
	return &MinutesModel{rules: rules}
}

var unavailableNews = []string{"injured", "doubtful", "suspension", "red card", "expected back"}

// available reports whether the player can be expected on the pitch at all.
func available(p types.Player) bool {
	if p.Status != "a" {
		return false
	}
	news := strings.ToLower(p.News)
	for _, marker := range unavailableNews {
		if strings.Contains(news, marker) {
			return false
		}
	}
	return true
}

// ExpectedMinutes returns the expected minutes in [0, 90] for one gameweek.
// Players whose team has no fixture that period get exactly 0.
func (m *MinutesModel) ExpectedMinutes(p types.Player, hasFixture bool) float64 {
	if !hasFixture {
		return 0
	}
	if !available(p) {
		return 0
	}

	minutes := p.Stats.Minutes
	switch {
	case minutes >= m.rules.ReliableThreshold:
		return m.starterMinutes(p)
	case minutes < m.rules.VeryLowThreshold:
		return m.rules.UnknownDefault
	default:
		return m.rules.SubDefault
	}
}

// starterMinutes estimates minutes-per-appearance for an established player.
// The API does not expose starts directly, so appearances are approximated
// from total points and points per game.
func (m *MinutesModel) starterMinutes(p types.Player) float64 {
	if p.TotalPoints > 0 && p.PointsPerGame > 0 {
		appearances := float64(p.TotalPoints) / p.PointsPerGame
		if appearances >= 1 {
			perAppearance := float64(p.Stats.Minutes) / appearances
			if perAppearance > 90 {
				return 90
			}
			return perAppearance
		}
	}
	// Established player with no usable appearance estimate.
	return 70
}
