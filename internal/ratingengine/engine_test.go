package ratingengine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naividh/member-profile-processor/internal/model"
)

func seedScenario() []model.Participant {
	return []model.Participant{
		{CoderID: 1001, Rating: 1500, Volatility: 400, NumRatings: 5, Score: 95.50},
		{CoderID: 1002, Rating: 1350, Volatility: 450, NumRatings: 3, Score: 88.25},
		{CoderID: 1003, Rating: 0, Volatility: 0, NumRatings: 0, Score: 72.00},
		{CoderID: 1004, Rating: 0, Volatility: 0, NumRatings: 0, Score: 60.75},
		{CoderID: 1005, Rating: 0, Volatility: 0, NumRatings: 0, Score: 45.00},
	}
}

func TestRunEmptySlate(t *testing.T) {
	assert.Nil(t, Run(nil))
	assert.Nil(t, Run([]model.Participant{}))
}

func TestRunSingleParticipantIsNoOp(t *testing.T) {
	in := []model.Participant{{CoderID: 42, Rating: 1700, Volatility: 300, NumRatings: 10, Score: 50}}
	out := Run(in)
	require.Len(t, out, 1)
	assert.Equal(t, 1700, out[0].NewRating)
	assert.Equal(t, 300, out[0].NewVolatility)
}

func TestRunSingleFirstTimerNormalizesThenNoOps(t *testing.T) {
	in := []model.Participant{{CoderID: 42, Rating: 0, Volatility: 0, NumRatings: 0, Score: 50}}
	out := Run(in)
	require.Len(t, out, 1)
	assert.Equal(t, 1200, out[0].NewRating)
	assert.Equal(t, 515, out[0].NewVolatility)
}

func TestFirstTimerInitializationAndVolatility(t *testing.T) {
	out := Run(seedScenario())
	for _, p := range out {
		if p.CoderID >= 1003 {
			assert.Equal(t, FirstVolatility, p.NewVolatility, "coder %d", p.CoderID)
		}
	}
}

func TestCapEnforcement(t *testing.T) {
	in := seedScenario()
	out := Run(in)
	for i, p := range out {
		limit := Cap(in[i].NumRatings)
		delta := math.Abs(float64(p.NewRating - p.Rating))
		assert.LessOrEqualf(t, delta, limit+1e-9, "coder %d delta %v exceeds cap %v", p.CoderID, delta, limit)
	}
}

func TestFloorNoRatingBelowOne(t *testing.T) {
	in := []model.Participant{
		{CoderID: 1, Rating: 1, Volatility: 50, NumRatings: 20, Score: 100},
		{CoderID: 2, Rating: 1, Volatility: 50, NumRatings: 20, Score: 0},
	}
	out := Run(in)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.NewRating, 1)
	}
}

func TestRankSumInvariant(t *testing.T) {
	out := Run(seedScenario())
	n := float64(len(out))
	sum := 0.0
	for _, p := range out {
		sum += p.ActualRank
	}
	assert.InDelta(t, n*(n+1)/2, sum, 1e-9)
}

func TestAllTiedScoresShareMidpointRank(t *testing.T) {
	in := []model.Participant{
		{CoderID: 1, Rating: 1500, Volatility: 400, NumRatings: 5, Score: 50},
		{CoderID: 2, Rating: 1400, Volatility: 400, NumRatings: 5, Score: 50},
		{CoderID: 3, Rating: 1300, Volatility: 400, NumRatings: 5, Score: 50},
	}
	out := Run(in)
	want := (float64(len(out)) + 1) / 2
	for _, p := range out {
		assert.InDelta(t, want, p.ActualRank, 1e-9)
	}
}

func TestRelativeOrderingMatchesScoreOrdering(t *testing.T) {
	out := Run(seedScenario())
	byCoder := map[int64]model.Participant{}
	for _, p := range out {
		byCoder[p.CoderID] = p
	}

	// Exact values are sensitive to the numeric approximations above; what
	// actually matters for this scenario is ordering, within cap
	// constraints, which this directly checks.
	assert.GreaterOrEqual(t, byCoder[1001].NewRating, byCoder[1002].NewRating)
	assert.GreaterOrEqual(t, byCoder[1002].NewRating, byCoder[1003].NewRating)
	assert.GreaterOrEqual(t, byCoder[1003].NewRating, byCoder[1004].NewRating)
	assert.GreaterOrEqual(t, byCoder[1004].NewRating, byCoder[1005].NewRating)
}

func TestNumRatingsComputationalIncrementIsLocalOnly(t *testing.T) {
	out := Run(seedScenario())
	for i, p := range out {
		assert.Equal(t, seedScenario()[i].NumRatings+1, p.NewNumRatings)
	}
}

func TestTierAttenuationReducesWeightAtHighRating(t *testing.T) {
	lowTier := []model.Participant{
		{CoderID: 1, Rating: 1900, Volatility: 300, NumRatings: 10, Score: 100},
		{CoderID: 2, Rating: 1900, Volatility: 300, NumRatings: 10, Score: 0},
	}
	highTier := []model.Participant{
		{CoderID: 1, Rating: 2600, Volatility: 300, NumRatings: 10, Score: 100},
		{CoderID: 2, Rating: 2600, Volatility: 300, NumRatings: 10, Score: 0},
	}

	lowOut := Run(lowTier)
	highOut := Run(highTier)

	lowDelta := math.Abs(float64(lowOut[0].NewRating - lowTier[0].Rating))
	highDelta := math.Abs(float64(highOut[0].NewRating - highTier[0].Rating))

	assert.Less(t, highDelta, lowDelta)
}
