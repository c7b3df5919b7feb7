package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fploptimizer/internal/types"
)

// ScoringRules is the strongly-typed FPL point table. Every field is validated
// once at load time; nothing is looked up by string key at use time.
type ScoringRules struct {
	AppearanceLT60  float64 `mapstructure:"appearance_lt_60"`
	AppearanceGTE60 float64 `mapstructure:"appearance_gte_60"`

	GoalGK  float64 `mapstructure:"goal_gk"`
	GoalDEF float64 `mapstructure:"goal_def"`
	GoalMID float64 `mapstructure:"goal_mid"`
	GoalFWD float64 `mapstructure:"goal_fwd"`
	Assist  float64 `mapstructure:"assist"`

	CleanSheetGKDEF float64 `mapstructure:"clean_sheet_gk_def"`
	CleanSheetMID   float64 `mapstructure:"clean_sheet_mid"`

	SavesPerBucket   int     `mapstructure:"saves_per_bucket"`
	SavesBucketValue float64 `mapstructure:"saves_bucket_value"`
	PenaltySave      float64 `mapstructure:"penalty_save"`

	ConcededTwoGoals float64 `mapstructure:"conceded_two_goals"`
	YellowCard       float64 `mapstructure:"yellow_card"`
	RedCard          float64 `mapstructure:"red_card"`
	PenaltyMiss      float64 `mapstructure:"penalty_miss"`
	OwnGoal          float64 `mapstructure:"own_goal"`

	DefensiveContribution  float64 `mapstructure:"defensive_contribution"`
	DCThresholdDEF         float64 `mapstructure:"dc_threshold_def"`
	DCThresholdMIDFWD      float64 `mapstructure:"dc_threshold_mid_fwd"`
	BonusScalingFactor     float64 `mapstructure:"bonus_scaling_factor"`
	BaselineCleanSheetRate float64 `mapstructure:"baseline_clean_sheet_rate"`
	BaselineGoalsConceded  float64 `mapstructure:"baseline_goals_conceded"`
}

// GoalPoints returns the points per goal for a position.
func (r ScoringRules) GoalPoints(pos types.Position) float64 {
	switch pos {
	case types.PositionGK:
		return r.GoalGK
	case types.PositionDEF:
		return r.GoalDEF
	case types.PositionMID:
		return r.GoalMID
	default:
		return r.GoalFWD
	}
}

// CleanSheetPoints returns the points per clean sheet for a position.
// Forwards earn nothing for clean sheets.
func (r ScoringRules) CleanSheetPoints(pos types.Position) float64 {
	switch pos {
	case types.PositionGK, types.PositionDEF:
		return r.CleanSheetGKDEF
	case types.PositionMID:
		return r.CleanSheetMID
	default:
		return 0
	}
}

// DCThreshold returns the defensive-contribution threshold for a position.
// Goalkeepers do not earn defensive-contribution points.
func (r ScoringRules) DCThreshold(pos types.Position) float64 {
	switch pos {
	case types.PositionDEF:
		return r.DCThresholdDEF
	case types.PositionMID, types.PositionFWD:
		return r.DCThresholdMIDFWD
	default:
		return 0
	}
}

// Validate rejects missing or malformed point values.
func (r ScoringRules) Validate() error {
	positive := map[string]float64{
		"appearance_lt_60":          r.AppearanceLT60,
		"appearance_gte_60":         r.AppearanceGTE60,
		"goal_gk":                   r.GoalGK,
		"goal_def":                  r.GoalDEF,
		"goal_mid":                  r.GoalMID,
		"goal_fwd":                  r.GoalFWD,
		"assist":                    r.Assist,
		"clean_sheet_gk_def":        r.CleanSheetGKDEF,
		"saves_bucket_value":        r.SavesBucketValue,
		"penalty_save":              r.PenaltySave,
		"defensive_contribution":    r.DefensiveContribution,
		"dc_threshold_def":          r.DCThresholdDEF,
		"dc_threshold_mid_fwd":      r.DCThresholdMIDFWD,
		"bonus_scaling_factor":      r.BonusScalingFactor,
		"baseline_clean_sheet_rate": r.BaselineCleanSheetRate,
		"baseline_goals_conceded":   r.BaselineGoalsConceded,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("scoring rule %q must be positive, got %v", name, v)
		}
	}
	if r.CleanSheetMID < 0 {
		return fmt.Errorf("scoring rule %q must be non-negative, got %v", "clean_sheet_mid", r.CleanSheetMID)
	}
	if r.SavesPerBucket < 1 {
		return fmt.Errorf("scoring rule %q must be at least 1, got %d", "saves_per_bucket", r.SavesPerBucket)
	}
	deductions := map[string]float64{
		"conceded_two_goals": r.ConcededTwoGoals,
		"yellow_card":        r.YellowCard,
		"red_card":           r.RedCard,
		"penalty_miss":       r.PenaltyMiss,
		"own_goal":           r.OwnGoal,
	}
	for name, v := range deductions {
		if v > 0 {
			return fmt.Errorf("scoring rule %q is a deduction and must be non-positive, got %v", name, v)
		}
	}
	return nil
}

// MinutesRules controls the minutes model and per-90 reliability tiers.
type MinutesRules struct {
	ReliableThreshold int     `mapstructure:"reliable_threshold"`
	VeryLowThreshold  int     `mapstructure:"very_low_threshold"`
	SubDefault        float64 `mapstructure:"sub_default"`
	UnknownDefault    float64 `mapstructure:"unknown_default"`
}

// Validate rejects malformed minutes thresholds.
func (m MinutesRules) Validate() error {
	if m.VeryLowThreshold <= 0 || m.ReliableThreshold <= m.VeryLowThreshold {
		return fmt.Errorf("minutes thresholds must satisfy 0 < very_low (%d) < reliable (%d)",
			m.VeryLowThreshold, m.ReliableThreshold)
	}
	if m.SubDefault < 0 || m.SubDefault > 90 || m.UnknownDefault < 0 || m.UnknownDefault > 90 {
		return fmt.Errorf("default minutes must be within [0, 90]")
	}
	return nil
}

// ConfidenceFactors shrink extrapolated per-90 rates for small samples.
type ConfidenceFactors struct {
	VeryLow float64 `mapstructure:"very_low"`
	Low     float64 `mapstructure:"low"`
	Proven  float64 `mapstructure:"proven"`
}

// Validate rejects factors outside (0, 1].
func (c ConfidenceFactors) Validate() error {
	for name, v := range map[string]float64{"very_low": c.VeryLow, "low": c.Low, "proven": c.Proven} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("confidence factor %q must be in (0, 1], got %v", name, v)
		}
	}
	return nil
}

// EventProbabilities are constant occurrence probabilities for rare negative
// events the historical data cannot support a player-specific estimate for.
type EventProbabilities struct {
	YellowCard  float64 `mapstructure:"yellow_card"`
	RedCard     float64 `mapstructure:"red_card"`
	PenaltyMiss float64 `mapstructure:"penalty_miss"`
	OwnGoal     float64 `mapstructure:"own_goal"`
}

// Validate rejects probabilities outside [0, 1].
func (e EventProbabilities) Validate() error {
	for name, v := range map[string]float64{
		"yellow_card": e.YellowCard, "red_card": e.RedCard,
		"penalty_miss": e.PenaltyMiss, "own_goal": e.OwnGoal,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("event probability %q must be in [0, 1], got %v", name, v)
		}
	}
	return nil
}

// SolverRules controls the optimization run.
type SolverRules struct {
	Horizon        int           `mapstructure:"horizon"`
	BudgetMillions float64       `mapstructure:"budget_millions"`
	MaxPerTeam     int           `mapstructure:"max_per_team"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxNodes       int           `mapstructure:"max_nodes"`
}

// Validate rejects malformed solver settings.
func (s SolverRules) Validate() error {
	if s.Horizon < 1 {
		return fmt.Errorf("solver horizon must be at least 1, got %d", s.Horizon)
	}
	if s.BudgetMillions <= 0 {
		return fmt.Errorf("solver budget must be positive, got %v", s.BudgetMillions)
	}
	if s.MaxPerTeam < 1 {
		return fmt.Errorf("solver max_per_team must be at least 1, got %d", s.MaxPerTeam)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("solver timeout must be positive, got %v", s.Timeout)
	}
	if s.MaxNodes < 1 {
		return fmt.Errorf("solver max_nodes must be at least 1, got %d", s.MaxNodes)
	}
	return nil
}

// SelectionRule mirrors a team/position constraint rule in config files.
type SelectionRule struct {
	Team       string `mapstructure:"team"`
	Position   string `mapstructure:"position"`
	MinPlayers int    `mapstructure:"min_players"`
}

// SquadRules holds the externally configured inclusion/exclusion rules.
type SquadRules struct {
	ExcludedIDs           []int           `mapstructure:"excluded_ids"`
	ExcludedNames         []string        `mapstructure:"excluded_names"`
	ExcludedTeamPositions []SelectionRule `mapstructure:"excluded_team_positions"`
	EnforcedIDs           []int           `mapstructure:"enforced_ids"`
	EnforcedNames         []string        `mapstructure:"enforced_names"`
	EnforcedTeamPositions []SelectionRule `mapstructure:"enforced_team_positions"`
}

// Config is the immutable configuration value passed into every stage
// constructor. There is no process-wide mutable settings object.
type Config struct {
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	FPLBaseURL string        `mapstructure:"fpl_base_url"`
	RedisURL   string        `mapstructure:"redis_url"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`

	Scoring       ScoringRules       `mapstructure:"scoring"`
	Minutes       MinutesRules       `mapstructure:"minutes"`
	Confidence    ConfidenceFactors  `mapstructure:"confidence"`
	Probabilities EventProbabilities `mapstructure:"probabilities"`
	Solver        SolverRules        `mapstructure:"solver"`
	Squad         SquadRules         `mapstructure:"squad"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Constraints converts the configured rules into the optimizer's constraint value.
func (c *Config) Constraints() types.Constraints {
	cons := types.Constraints{
		BudgetTenths:  int(c.Solver.BudgetMillions*10 + 0.5),
		MaxPerTeam:    c.Solver.MaxPerTeam,
		ExcludedIDs:   append([]int(nil), c.Squad.ExcludedIDs...),
		ExcludedNames: append([]string(nil), c.Squad.ExcludedNames...),
		EnforcedIDs:   append([]int(nil), c.Squad.EnforcedIDs...),
		EnforcedNames: append([]string(nil), c.Squad.EnforcedNames...),
	}
	for _, r := range c.Squad.ExcludedTeamPositions {
		cons.ExcludedTeamPositions = append(cons.ExcludedTeamPositions, types.TeamPositionRule{
			Team:     r.Team,
			Position: types.Position(strings.ToUpper(r.Position)),
		})
	}
	for _, r := range c.Squad.EnforcedTeamPositions {
		min := r.MinPlayers
		if min < 1 {
			min = 1
		}
		cons.EnforcedTeamPositions = append(cons.EnforcedTeamPositions, types.TeamPositionRule{
			Team:       r.Team,
			Position:   types.Position(strings.ToUpper(r.Position)),
			MinPlayers: min,
		})
	}
	return cons
}

// Validate checks every section once at load time.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Minutes.Validate(); err != nil {
		return err
	}
	if err := c.Confidence.Validate(); err != nil {
		return err
	}
	if err := c.Probabilities.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8082")
	v.SetDefault("log_level", "info")

	v.SetDefault("fpl_base_url", "https://fantasy.premierleague.com/api")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache_ttl", time.Hour)

	// 2025/26 FPL scoring rules.
	v.SetDefault("scoring.appearance_lt_60", 1.0)
	v.SetDefault("scoring.appearance_gte_60", 2.0)
	v.SetDefault("scoring.goal_gk", 10.0)
	v.SetDefault("scoring.goal_def", 6.0)
	v.SetDefault("scoring.goal_mid", 5.0)
	v.SetDefault("scoring.goal_fwd", 4.0)
	v.SetDefault("scoring.assist", 3.0)
	v.SetDefault("scoring.clean_sheet_gk_def", 4.0)
	v.SetDefault("scoring.clean_sheet_mid", 1.0)
	v.SetDefault("scoring.saves_per_bucket", 3)
	v.SetDefault("scoring.saves_bucket_value", 1.0)
	v.SetDefault("scoring.penalty_save", 5.0)
	v.SetDefault("scoring.conceded_two_goals", -1.0)
	v.SetDefault("scoring.yellow_card", -1.0)
	v.SetDefault("scoring.red_card", -3.0)
	v.SetDefault("scoring.penalty_miss", -2.0)
	v.SetDefault("scoring.own_goal", -2.0)
	v.SetDefault("scoring.defensive_contribution", 2.0)
	v.SetDefault("scoring.dc_threshold_def", 10.0)
	v.SetDefault("scoring.dc_threshold_mid_fwd", 12.0)
	v.SetDefault("scoring.bonus_scaling_factor", 0.005)
	v.SetDefault("scoring.baseline_clean_sheet_rate", 0.30)
	v.SetDefault("scoring.baseline_goals_conceded", 1.35)

	v.SetDefault("minutes.reliable_threshold", 2500)
	v.SetDefault("minutes.very_low_threshold", 450)
	v.SetDefault("minutes.sub_default", 15.0)
	v.SetDefault("minutes.unknown_default", 1.0)

	v.SetDefault("confidence.very_low", 0.25)
	v.SetDefault("confidence.low", 0.5)
	v.SetDefault("confidence.proven", 1.0)

	v.SetDefault("probabilities.yellow_card", 0.05)
	v.SetDefault("probabilities.red_card", 0.005)
	v.SetDefault("probabilities.penalty_miss", 0.01)
	v.SetDefault("probabilities.own_goal", 0.002)

	v.SetDefault("solver.horizon", 5)
	v.SetDefault("solver.budget_millions", 100.0)
	v.SetDefault("solver.max_per_team", 3)
	v.SetDefault("solver.timeout", 2*time.Minute)
	v.SetDefault("solver.max_nodes", 20000)
}

// Load reads configuration from an optional YAML file plus environment
// overrides (FPL_ prefix) and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are statically valid; a failure here is a programming error.
		panic(err)
	}
	return cfg
}
