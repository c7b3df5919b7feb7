package predictor

import (
	"fploptimizer/internal/config"
	"fploptimizer/internal/types"
)

// ScoreModel combines per-90 rates, expected minutes, fixture multipliers and
// the scoring-rule table into an expected-points value per player per fixture.
type ScoreModel struct {
	rules    config.ScoringRules
	probs    config.EventProbabilities
	stats    *StatsNormalizer
	minutes  *MinutesModel
	strength *StrengthModel
}

// NewScoreModel wires the score model to its upstream models.
func NewScoreModel(
	rules config.ScoringRules,
	probs config.EventProbabilities,
	stats *StatsNormalizer,
	minutes *MinutesModel,
	strength *StrengthModel,
) *ScoreModel {
	return &ScoreModel{
		rules:    rules,
		probs:    probs,
		stats:    stats,
		minutes:  minutes,
		strength: strength,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Project computes the expected-points forecast for one player in one
// fixture. A player with zero expected minutes contributes exactly zero.
func (s *ScoreModel) Project(p types.Player, f types.Fixture) types.PeriodProjection {
	proj := types.PeriodProjection{
		PlayerID:   p.ID,
		Gameweek:   f.Gameweek,
		Confidence: s.stats.ConfidenceFactor(p.Stats.Minutes),
	}

	expMinutes := s.minutes.ExpectedMinutes(p, f.Involves(p.TeamID))
	proj.ExpectedMinutes = expMinutes
	if expMinutes <= 0 {
		return proj
	}

	rates := s.stats.Normalize(p)
	minutesShare := expMinutes / 90.0
	attackMult := s.strength.AttackMultiplier(p.TeamID, f)
	oppAttack := s.strength.OpponentAttackStrength(p.TeamID, f)

	var b types.Contribution

	// Appearance points interpolate between the <60' and >=60' bands in
	// proportion to expected minutes; expectation is probabilistic, so the
	// 60-minute threshold is not a hard cutoff.
	b.Appearance = s.rules.AppearanceLT60 +
		(s.rules.AppearanceGTE60-s.rules.AppearanceLT60)*clamp01(expMinutes/60.0)

	// Attacking returns scale with minutes and opponent defensive weakness.
	expGoals := clamp01(rates.Goals * minutesShare * attackMult)
	b.Goals = expGoals * s.rules.GoalPoints(p.Position)

	expAssists := clamp01(rates.Assists * minutesShare * attackMult)
	b.Assists = expAssists * s.rules.Assist

	// Clean-sheet probability: baseline rate scaled by the inverse of the
	// opponent's attacking strength, gated on playing at least an hour.
	if csPoints := s.rules.CleanSheetPoints(p.Position); csPoints > 0 {
		csProb := s.rules.BaselineCleanSheetRate
		if oppAttack > 0 {
			csProb /= oppAttack
		}
		csProb = clamp01(csProb) * clamp01(expMinutes/60.0)
		b.CleanSheet = csProb * csPoints
	}

	expConceded := s.rules.BaselineGoalsConceded * oppAttack * minutesShare
	if p.Position == types.PositionGK || p.Position == types.PositionDEF {
		b.GoalsConceded = (expConceded / 2.0) * s.rules.ConcededTwoGoals
	}

	if p.Position == types.PositionGK {
		// Stronger opposing attacks produce more shots, hence more saves.
		expSaves := rates.Saves * minutesShare * oppAttack
		if expSaves < 0 {
			expSaves = 0
		}
		b.Saves = expSaves / float64(s.rules.SavesPerBucket) * s.rules.SavesBucketValue

		expPenaltySaves := clamp01(rates.PenaltySaves * minutesShare)
		b.PenaltySaves = expPenaltySaves * s.rules.PenaltySave
	}

	// BPS is a bonus proxy; the scaling factor converts an expected BPS
	// score into expected bonus points.
	expBPS := rates.BPS * minutesShare
	if expBPS > 0 {
		b.Bonus = expBPS * s.rules.BonusScalingFactor
	}

	if threshold := s.rules.DCThreshold(p.Position); threshold > 0 {
		expDC := rates.DefensiveContribution * minutesShare
		hitProb := clamp01(expDC / threshold)
		b.DefensiveContribution = hitProb * s.rules.DefensiveContribution
	}

	// Rare negative events use configured constant probabilities; the data
	// cannot support player-specific estimates.
	b.Deductions = minutesShare * (s.rules.YellowCard*s.probs.YellowCard +
		s.rules.RedCard*s.probs.RedCard +
		s.rules.PenaltyMiss*s.probs.PenaltyMiss +
		s.rules.OwnGoal*s.probs.OwnGoal)

	proj.Breakdown = b
	proj.ExpectedPoints = b.Total()
	return proj
}
