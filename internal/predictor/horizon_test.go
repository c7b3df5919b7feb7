package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fploptimizer/internal/types"
)

func TestAggregate_BlankAndDoubleGameweeks(t *testing.T) {
	h := NewHorizonAggregator(5)

	periods := []types.PeriodProjection{
		{PlayerID: 7, Gameweek: 10, ExpectedPoints: 2.0},
		{PlayerID: 7, Gameweek: 10, ExpectedPoints: 1.5}, // double gameweek
		{PlayerID: 7, Gameweek: 12, ExpectedPoints: 3.0},
	}

	agg := h.Aggregate(7, 10, periods)
	assert.Equal(t, 7, agg.PlayerID)
	assert.InDelta(t, 6.5, agg.TotalExpectedPoints, 1e-9)

	// Every gameweek in the horizon appears, blanks as explicit zeros.
	assert.Len(t, agg.ByGameweek, 5)
	assert.InDelta(t, 3.5, agg.ByGameweek[10], 1e-9)
	assert.Equal(t, 0.0, agg.ByGameweek[11])
	assert.InDelta(t, 3.0, agg.ByGameweek[12], 1e-9)
	assert.Equal(t, 0.0, agg.ByGameweek[13])
	assert.Equal(t, 0.0, agg.ByGameweek[14])
}

func TestAggregate_IgnoresPeriodsOutsideHorizon(t *testing.T) {
	h := NewHorizonAggregator(3)

	periods := []types.PeriodProjection{
		{PlayerID: 7, Gameweek: 10, ExpectedPoints: 2.0},
		{PlayerID: 7, Gameweek: 20, ExpectedPoints: 9.0},
	}
	agg := h.Aggregate(7, 10, periods)
	assert.InDelta(t, 2.0, agg.TotalExpectedPoints, 1e-9)
	assert.Len(t, agg.ByGameweek, 3)
}

func TestAggregate_NoFixturesIsZero(t *testing.T) {
	h := NewHorizonAggregator(5)
	agg := h.Aggregate(7, 1, nil)
	assert.Equal(t, 0.0, agg.TotalExpectedPoints)
	assert.Len(t, agg.ByGameweek, 5)
}
