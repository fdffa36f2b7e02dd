// Package model defines the durable and in-memory entities of the marathon
// rating processor: Round, LongCompResult, AlgoRating, and the in-memory
// Participant the rating engine operates on.
package model

import (
	"github.com/shopspring/decimal"
)

// MarathonRatingType is the fixed algo_rating_type_id for marathon matches.
const MarathonRatingType = 3

// AttendedYes and AttendedNo are the two resolved values of LongCompResult.Attended.
// A blank or otherwise unrecognized byte is treated as unknown/not-attended.
const (
	AttendedYes = "Y"
	AttendedNo  = "N"
)

// Round is a single rated contest instance.
type Round struct {
	RoundID   int64
	RatedInd  bool
	ContestID *int64
}

// LongCompResult is one participant's outcome in one round.
type LongCompResult struct {
	RoundID          int64
	CoderID          int64
	Attended         string
	SystemPointTotal decimal.Decimal
	OldRating        *int
	OldVol           *int
	NewRating        *int
	NewVol           *int
	RatedInd         bool
}

// AttendedOK reports whether the row should be treated as having attended,
// case-insensitively ("Y" or "y").
func (r LongCompResult) AttendedOK() bool {
	return r.Attended == "Y" || r.Attended == "y"
}

// AlgoRating is a participant's current rating for algo_rating_type_id = 3.
type AlgoRating struct {
	CoderID           int64
	AlgoRatingTypeID  int
	Rating            int
	Vol               int
	NumRatings        int
	RoundID           int64
	HighestRating     int
	LowestRating      int
	FirstRatedRoundID int64
	LastRatedRoundID  int64
}

// Participant is the unit the rating engine consumes and produces.
// It is materialized by the Loader, mutated by the Engine, and consumed by
// the Persistor — owned exclusively by the Orchestrator invocation that
// created it.
type Participant struct {
	CoderID    int64
	Rating     int
	Volatility int
	NumRatings int
	Score      float64

	// Transient computation fields, populated by the engine.
	ExpectedRank        float64
	ExpectedPerformance float64
	ActualRank          float64
	ActualPerformance   float64

	// Outputs. NewRating/NewVolatility are set for every participant the
	// engine ran on; NewNumRatings reflects the engine's local bookkeeping
	// only — the durable increment is the Persistor's responsibility.
	NewRating     int
	NewVolatility int
	NewNumRatings int
}
