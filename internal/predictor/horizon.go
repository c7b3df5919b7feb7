package predictor

import (
	"fploptimizer/internal/types"
)

// HorizonAggregator sums per-gameweek expected points into one scalar per
// player. Gameweeks without a fixture contribute an explicit zero entry, so
// the horizon always spans the stated number of periods. A double gameweek
// sums both of its fixtures.
type HorizonAggregator struct {
	horizon int
}

// NewHorizonAggregator builds an aggregator over a fixed horizon length.
func NewHorizonAggregator(horizon int) *HorizonAggregator {
	return &HorizonAggregator{horizon: horizon}
}

// Horizon reports the configured number of gameweeks.
func (h *HorizonAggregator) Horizon() int {
	return h.horizon
}

// Aggregate combines a player's period projections, starting at startGameweek,
// into an AggregatedProjection covering exactly the configured horizon.
func (h *HorizonAggregator) Aggregate(playerID, startGameweek int, periods []types.PeriodProjection) types.AggregatedProjection {
	byGameweek := make(map[int]float64, h.horizon)
	for gw := startGameweek; gw < startGameweek+h.horizon; gw++ {
		byGameweek[gw] = 0
	}

	total := 0.0
	for _, p := range periods {
		if _, ok := byGameweek[p.Gameweek]; !ok {
			continue
		}
		byGameweek[p.Gameweek] += p.ExpectedPoints
		total += p.ExpectedPoints
	}

	return types.AggregatedProjection{
		PlayerID:            playerID,
		TotalExpectedPoints: total,
		ByGameweek:          byGameweek,
	}
}
