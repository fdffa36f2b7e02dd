// Package ratingengine implements the Qubits rating algorithm: a pure,
// side-effect-free transformation over a slate of participants that
// produces a new rating and volatility for each.
package ratingengine

import (
	"math"

	"github.com/naividh/member-profile-processor/internal/model"
	"github.com/naividh/member-profile-processor/internal/ratingengine/numeric"
)

// Tuning constants for the Qubits algorithm.
const (
	InitialWeight   = 0.60
	FinalWeight     = 0.18
	FirstVolatility = 385

	firstTimerRating     = 1200
	firstTimerVolatility = 515
)

// Run executes one pass of the Qubits algorithm over the given slate and
// returns a new slate with NewRating/NewVolatility/NewNumRatings populated.
// It never mutates the input; callers compose two passes (provisional over
// the full slate, non-provisional over the experienced subset) — see
// internal/orchestrator.
func Run(in []model.Participant) []model.Participant {
	n := len(in)
	if n == 0 {
		return nil
	}

	out := make([]model.Participant, n)
	copy(out, in)

	// Step 1: first-timer normalization.
	for i := range out {
		if out[i].NumRatings == 0 {
			out[i].Rating = firstTimerRating
			out[i].Volatility = firstTimerVolatility
		}
	}

	if n == 1 {
		out[0].NewRating = out[0].Rating
		out[0].NewVolatility = out[0].Volatility
		out[0].NewNumRatings = out[0].NumRatings + 1
		return out
	}

	// Step 2-3: mean rating and competition factor.
	rave := meanRating(out)
	vtemp := 0.0
	rtemp := 0.0
	for _, p := range out {
		vtemp += float64(p.Volatility) * float64(p.Volatility)
		d := float64(p.Rating) - rave
		rtemp += d * d
	}
	cf := math.Sqrt(vtemp/float64(n) + rtemp/float64(n-1))

	// Step 4: expected rank and performance.
	for i := range out {
		out[i].ExpectedRank = expectedRank(out, i)
		out[i].ExpectedPerformance = -numeric.InvCDF((out[i].ExpectedRank - 0.5) / float64(n))
	}

	// Step 5: actual rank and performance, tie-aware.
	assignActualRankAndPerformance(out)

	// Steps 6-9: per-participant update.
	for i := range out {
		p := &out[i]
		diff := p.ActualPerformance - p.ExpectedPerformance
		performedAs := float64(p.Rating) + diff*cf

		wRaw := (InitialWeight-FinalWeight)/float64(p.NumRatings+1) + FinalWeight
		w := 1/(1-wRaw) - 1

		switch {
		case p.Rating >= 2500:
			w *= 4.0 / 5
		case p.Rating >= 2000:
			w *= 4.5 / 5
		}

		tentative := (float64(p.Rating) + w*performedAs) / (1 + w)

		capDelta := 150 + 1500/(2+float64(p.NumRatings))
		tentative = clamp(tentative, float64(p.Rating)-capDelta, float64(p.Rating)+capDelta)
		if tentative < 1 {
			tentative = 1
		}
		newRating := int(math.Round(tentative))

		var newVol int
		if p.NumRatings > 0 {
			delta := float64(newRating - p.Rating)
			newVol = int(math.Round(math.Sqrt(float64(p.Volatility)*float64(p.Volatility)/(1+w) + delta*delta/w)))
		} else {
			newVol = FirstVolatility
		}

		p.NewRating = newRating
		p.NewVolatility = newVol
		p.NewNumRatings = p.NumRatings + 1
	}

	return out
}

// Cap returns the maximum signed rating delta allowed for a participant
// with the given prior num_ratings.
func Cap(numRatings int) float64 {
	return 150 + 1500/(2+float64(numRatings))
}

func meanRating(participants []model.Participant) float64 {
	sum := 0.0
	for _, p := range participants {
		sum += float64(p.Rating)
	}
	return sum / float64(len(participants))
}

// expectedRank computes expected_rank_i = 0.5 + Sum_j P(j beats i), where
// the sum runs over ALL participants including i (whose self-term is
// exactly 0.5).
func expectedRank(participants []model.Participant, i int) float64 {
	ri := float64(participants[i].Rating)
	vi := float64(participants[i].Volatility)

	sum := 0.0
	for j := range participants {
		rj := float64(participants[j].Rating)
		vj := float64(participants[j].Volatility)
		sum += probabilityBeats(rj, vj, ri, vi)
	}
	return 0.5 + sum
}

// probabilityBeats returns P(a beats b) given each side's rating/volatility.
func probabilityBeats(ra, va, rb, vb float64) float64 {
	return (numeric.Erf((ra-rb)/math.Sqrt(2*(va*va+vb*vb))) + 1) / 2
}

// assignActualRankAndPerformance ranks participants by descending score,
// giving tied participants the midpoint rank of their occupied span.
func assignActualRankAndPerformance(participants []model.Participant) {
	n := len(participants)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Stable descending sort by score so ties keep their input order within
	// the tied group (the assigned rank/performance is identical for all of
	// them regardless, but stability keeps results reproducible).
	for i := 1; i < n; i++ {
		for j := i; j > 0 && participants[order[j-1]].Score < participants[order[j]].Score; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}

	i := 0
	for i < n {
		k := 1
		for i+k < n && participants[order[i+k]].Score == participants[order[i]].Score {
			k++
		}

		rank := float64(i) + 0.5 + float64(k)/2
		perf := -numeric.InvCDF((float64(i) + float64(k)/2) / float64(n))

		for m := 0; m < k; m++ {
			idx := order[i+m]
			participants[idx].ActualRank = rank
			participants[idx].ActualPerformance = perf
		}

		i += k
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
