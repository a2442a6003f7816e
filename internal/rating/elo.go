package rating

import "math"

// Actual scores for a single pairwise comparison.
const (
	Win  = 1.0
	Draw = 0.5
	Loss = 0.0
)

// ExpectedScore returns the probability that a player rated a beats a player
// rated b. ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
}

// EloDelta is the rounded rating change for one comparison against opponent.
func EloDelta(current, opponent int, actual float64, k int) int {
	return int(math.Round(RawDelta(float64(current), float64(opponent), actual, float64(k))))
}

// RawDelta is the unrounded form of EloDelta, used where several comparisons
// are accumulated before rounding.
func RawDelta(current, opponent, actual, k float64) float64 {
	return k * (actual - ExpectedScore(current, opponent))
}

// KFactor picks the provisional or standard K for a player with the given
// number of matches played in an event.
func (p KFactorParams) KFactor(matchesPlayed int) int {
	if matchesPlayed < p.ProvisionalThreshold {
		return p.Provisional
	}
	return p.Standard
}
