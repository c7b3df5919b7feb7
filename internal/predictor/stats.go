package predictor

import (
	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// Per90Rates are a player's countable-event rates normalized to a 90-minute
// basis, already shrunk by the sample-size confidence factor.
type Per90Rates struct {
	Goals                 float64
	Assists               float64
	Saves                 float64
	PenaltySaves          float64
	BPS                   float64
	DefensiveContribution float64
}

// StatsNormalizer converts raw season totals into confidence-shrunk per-90
// rates. Shrinkage is what keeps one goal in ten minutes from extrapolating
// into an implausible rate.
type StatsNormalizer struct {
	minutes    config.MinutesRules
	confidence config.ConfidenceFactors
}

// NewStatsNormalizer builds a normalizer from the configured thresholds.
func NewStatsNormalizer(minutes config.MinutesRules, confidence config.ConfidenceFactors) *StatsNormalizer {
	return &StatsNormalizer{minutes: minutes, confidence: confidence}
}

// ConfidenceFactor returns the shrinkage factor for a historical sample size.
func (n *StatsNormalizer) ConfidenceFactor(minutesPlayed int) float64 {
	switch {
	case minutesPlayed < n.minutes.VeryLowThreshold:
		return n.confidence.VeryLow
	case minutesPlayed < n.minutes.ReliableThreshold:
		return n.confidence.Low
	default:
		return n.confidence.Proven
	}
}

// Normalize returns confidence-shrunk per-90 rates for a player. Players with
// zero recorded minutes get zero rates regardless of factor; they stay
// eligible for selection through the minutes-model defaults.
func (n *StatsNormalizer) Normalize(p types.Player) Per90Rates {
	minutes := p.Stats.Minutes
	if minutes <= 0 {
		return Per90Rates{}
	}

	factor := n.ConfidenceFactor(minutes)
	per90 := func(count float64) float64 {
		return count / float64(minutes) * 90.0 * factor
	}

	return Per90Rates{
		Goals:                 per90(float64(p.Stats.Goals)),
		Assists:               per90(float64(p.Stats.Assists)),
		Saves:                 per90(float64(p.Stats.Saves)),
		PenaltySaves:          per90(float64(p.Stats.PenaltiesSaved)),
		BPS:                   per90(float64(p.Stats.BPS)),
		DefensiveContribution: per90(p.Stats.DefensiveContribution),
	}
}
