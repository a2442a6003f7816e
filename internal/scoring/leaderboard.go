package scoring

import (
	"tournament-arc/internal/domain"
)

// Leaderboard events never score a match. A submitted score is stored and,
// when it is a personal best, the event is renormalized.
type Leaderboard struct{}

func (Leaderboard) Format() domain.Format { return domain.FormatLeaderboard }

func (Leaderboard) Calculate(int64, []Participant) (Outcome, error) {
	return Outcome{}, domain.ErrSubmissionOnly
}

// Better reports whether score a beats score b in the given direction.
func (Leaderboard) Better(a, b float64, dir domain.ScoreDirection) bool {
	if dir == domain.LowerIsBetter {
		return a < b
	}
	return a > b
}

// IsPersonalBest reports whether score improves on previous. A first
// submission is always a personal best.
func (l Leaderboard) IsPersonalBest(previous *float64, score float64, dir domain.ScoreDirection) bool {
	if previous == nil {
		return true
	}
	return l.Better(score, *previous, dir)
}
