// Package scoring turns one match's participant list into rating changes.
// Every strategy is a pure function of its input; persisting the outcome is
// the caller's job.
package scoring

import (
	"fmt"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

// Participant is one player's state going into a match.
type Participant struct {
	PlayerID      int64
	Placement     int
	Team          int
	Elo           rating.Rating
	MatchesPlayed int
}

// Change is one player's result coming out of a match. Every participant
// also gains exactly one match played.
type Change struct {
	PlayerID int64
	Delta    int
	KFactor  int
	Result   domain.Result
}

type Outcome struct {
	EventID int64
	Format  domain.Format
	Changes []Change
}

func (o Outcome) For(playerID int64) (Change, bool) {
	for _, c := range o.Changes {
		if c.PlayerID == playerID {
			return c, true
		}
	}
	return Change{}, false
}

// NetDelta is the sum of all changes; zero for a perfectly balanced match.
func (o Outcome) NetDelta() int {
	var sum int
	for _, c := range o.Changes {
		sum += c.Delta
	}
	return sum
}

type Strategy interface {
	Format() domain.Format
	Calculate(eventID int64, participants []Participant) (Outcome, error)
}

// Registry selects the strategy for the format stored on a match.
type Registry struct {
	strategies  map[domain.Format]Strategy
	leaderboard Leaderboard
}

func NewRegistry(params rating.Params) *Registry {
	k := params.Clone().KFactor
	lb := Leaderboard{}
	r := &Registry{
		strategies:  make(map[domain.Format]Strategy, 4),
		leaderboard: lb,
	}
	for _, s := range []Strategy{
		OneVOne{k: k},
		FreeForAll{k: k},
		Team{k: k},
		lb,
	} {
		r.strategies[s.Format()] = s
	}
	return r
}

func (r *Registry) For(format domain.Format) (Strategy, error) {
	s, ok := r.strategies[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownScoringFormat, format)
	}
	return s, nil
}

func (r *Registry) Leaderboard() Leaderboard {
	return r.leaderboard
}

func resultFor(score float64) domain.Result {
	switch score {
	case rating.Win:
		return domain.ResultWin
	case rating.Loss:
		return domain.ResultLoss
	}
	return domain.ResultDraw
}

func ensureDistinct(participants []Participant) error {
	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.PlayerID]; dup {
			return fmt.Errorf("%w: player %d appears more than once", domain.ErrInvalidPlacementSet, p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
	}
	return nil
}
