// Package leaderboard converts raw leaderboard scores into Elo-equivalent
// ratings by Z-score normalization.
package leaderboard

import (
	"fmt"
	"math"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

type Score struct {
	PlayerID int64
	Value    float64
}

type Rated struct {
	PlayerID int64
	Score    float64
	Z        float64
	Elo      float64
}

type Stats struct {
	Population   int
	Mean         float64
	StdDev       float64
	FallbackUsed bool
}

type Normalizer struct {
	p rating.ZScoreParams
}

func NewNormalizer(params rating.Params) *Normalizer {
	return &Normalizer{p: params.ZScore}
}

// Normalize rates every score against the population it belongs to. For
// lower-is-better events the sign of z is flipped so a better score always
// maps to a higher rating. Results keep the input order.
func (n *Normalizer) Normalize(scores []Score, dir domain.ScoreDirection) ([]Rated, Stats, error) {
	if len(scores) < n.p.MinPopulation {
		return nil, Stats{}, fmt.Errorf("%w: %d scores, need %d", domain.ErrInsufficientPopulation, len(scores), n.p.MinPopulation)
	}
	for _, s := range scores {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, Stats{}, fmt.Errorf("%w: player %d has non-finite score", domain.ErrInvalidScore, s.PlayerID)
		}
	}

	stats := Stats{Population: len(scores)}
	for _, s := range scores {
		stats.Mean += s.Value
	}
	stats.Mean /= float64(len(scores))

	var variance float64
	for _, s := range scores {
		d := s.Value - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(len(scores)))

	sd := stats.StdDev
	if sd == 0 {
		sd = n.p.FallbackStdDev
		stats.FallbackUsed = true
	}

	out := make([]Rated, len(scores))
	for i, s := range scores {
		z := (s.Value - stats.Mean) / sd
		if dir == domain.LowerIsBetter {
			z = -z
		}
		z = max(-n.p.MaxZ, min(n.p.MaxZ, z))
		out[i] = Rated{
			PlayerID: s.PlayerID,
			Score:    s.Value,
			Z:        z,
			Elo:      n.p.BaseElo + z*n.p.EloPerSigma,
		}
	}
	return out, stats, nil
}

// Composite blends the all-time rating with the average weekly rating over
// every elapsed week. Weeks a player skipped are already in weeklySum as 0.
// With no elapsed weeks the all-time rating stands alone.
func (n *Normalizer) Composite(allTime, weeklySum float64, elapsedWeeks int) float64 {
	if elapsedWeeks <= 0 {
		return allTime
	}
	w := n.p.AllTimeWeight
	return w*allTime + (1-w)*weeklySum/float64(elapsedWeeks)
}
