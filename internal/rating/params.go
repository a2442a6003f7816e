package rating

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Params holds every tunable used by the rating components. Components take
// a Params by value and clone its slices, so a Params is never shared mutably.
type Params struct {
	KFactor  KFactorParams  `toml:"k_factor"`
	Prestige PrestigeParams `toml:"prestige"`
	Tiers    []Tier         `toml:"tiers"`
	ZScore   ZScoreParams   `toml:"zscore"`
}

type KFactorParams struct {
	ProvisionalThreshold int `toml:"provisional_threshold"`
	Provisional          int `toml:"provisional"`
	Standard             int `toml:"standard"`
}

// PrestigeParams weights a player's event ratings by rank inside a cluster.
// Ranks past len(Multipliers) use Default.
type PrestigeParams struct {
	Multipliers []float64 `toml:"multipliers"`
	Default     float64   `toml:"default"`
}

// Multiplier returns the weight for the zero-based rank.
func (p PrestigeParams) Multiplier(rank int) float64 {
	if rank < len(p.Multipliers) {
		return p.Multipliers[rank]
	}
	return p.Default
}

// Tier is one band of the overall rating: the next Size clusters, by rank,
// averaged and weighted by Weight.
type Tier struct {
	Size   int     `toml:"size"`
	Weight float64 `toml:"weight"`
}

type ZScoreParams struct {
	MinPopulation  int     `toml:"min_population"`
	FallbackStdDev float64 `toml:"fallback_stddev"`
	MaxZ           float64 `toml:"max_z"`
	BaseElo        float64 `toml:"base_elo"`
	EloPerSigma    float64 `toml:"elo_per_sigma"`
	AllTimeWeight  float64 `toml:"all_time_weight"`
}

func DefaultParams() Params {
	return Params{
		KFactor: KFactorParams{
			ProvisionalThreshold: 5,
			Provisional:          40,
			Standard:             20,
		},
		Prestige: PrestigeParams{
			Multipliers: []float64{4.0, 2.5, 1.5},
			Default:     1.0,
		},
		Tiers: []Tier{
			{Size: 10, Weight: 0.60},
			{Size: 5, Weight: 0.25},
			{Size: 5, Weight: 0.15},
		},
		ZScore: ZScoreParams{
			MinPopulation:  3,
			FallbackStdDev: 1.0,
			MaxZ:           5.0,
			BaseElo:        1000,
			EloPerSigma:    200,
			AllTimeWeight:  0.5,
		},
	}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	c := p
	c.Prestige.Multipliers = slices.Clone(p.Prestige.Multipliers)
	c.Tiers = slices.Clone(p.Tiers)
	return c
}

func (p Params) Validate() error {
	var errs []error

	k := p.KFactor
	if k.ProvisionalThreshold < 0 {
		errs = append(errs, fmt.Errorf("k_factor.provisional_threshold must be >= 0, got %d", k.ProvisionalThreshold))
	}
	if k.Provisional <= 0 || k.Standard <= 0 {
		errs = append(errs, fmt.Errorf("k_factor values must be positive, got provisional=%d standard=%d", k.Provisional, k.Standard))
	}

	for i, m := range p.Prestige.Multipliers {
		if m <= 0 {
			errs = append(errs, fmt.Errorf("prestige.multipliers[%d] must be positive, got %v", i, m))
		}
	}
	if p.Prestige.Default <= 0 {
		errs = append(errs, fmt.Errorf("prestige.default must be positive, got %v", p.Prestige.Default))
	}

	if len(p.Tiers) == 0 {
		errs = append(errs, errors.New("at least one tier is required"))
	}
	var total float64
	for i, t := range p.Tiers {
		if t.Size <= 0 {
			errs = append(errs, fmt.Errorf("tiers[%d].size must be positive, got %d", i, t.Size))
		}
		if t.Weight < 0 {
			errs = append(errs, fmt.Errorf("tiers[%d].weight must be >= 0, got %v", i, t.Weight))
		}
		total += t.Weight
	}
	if len(p.Tiers) > 0 && math.Abs(total-1.0) > 1e-9 {
		errs = append(errs, fmt.Errorf("tier weights must sum to 1, got %v", total))
	}

	z := p.ZScore
	if z.MinPopulation < 2 {
		errs = append(errs, fmt.Errorf("zscore.min_population must be >= 2, got %d", z.MinPopulation))
	}
	if z.FallbackStdDev <= 0 {
		errs = append(errs, fmt.Errorf("zscore.fallback_stddev must be positive, got %v", z.FallbackStdDev))
	}
	if z.MaxZ <= 0 {
		errs = append(errs, fmt.Errorf("zscore.max_z must be positive, got %v", z.MaxZ))
	}
	if z.AllTimeWeight < 0 || z.AllTimeWeight > 1 {
		errs = append(errs, fmt.Errorf("zscore.all_time_weight must be within [0,1], got %v", z.AllTimeWeight))
	}

	return errors.Join(errs...)
}
