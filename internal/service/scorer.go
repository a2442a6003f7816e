package service

import (
	"context"
	"fmt"
	"time"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
)

// scorer applies a strategy's outcome to one match inside a transaction.
// It is shared by first-time completion and by undo replays.
type scorer struct {
	matches *repository.MatchRepository
	changes *repository.RatingChangeRepository
}

// score runs strategy over roster using the ratings held in states, advances
// those states in place, overwrites the roster's snapshots and appends one
// rating change per participant. Saving states is left to the caller.
func (sc scorer) score(
	ctx context.Context,
	strategy scoring.Strategy,
	match domain.Match,
	roster []domain.MatchParticipant,
	states map[int64]*domain.PlayerEventRating,
	kind domain.ChangeKind,
	now time.Time,
) ([]domain.MatchParticipant, error) {
	in := make([]scoring.Participant, len(roster))
	for i, p := range roster {
		st, ok := states[p.PlayerID]
		if !ok {
			return nil, fmt.Errorf("no rating loaded for player %d in match %d", p.PlayerID, match.ID)
		}
		in[i] = scoring.Participant{
			PlayerID:      p.PlayerID,
			Placement:     p.Placement,
			Team:          p.Team,
			Elo:           st.Elo,
			MatchesPlayed: st.MatchesPlayed,
		}
	}

	outcome, err := strategy.Calculate(match.EventID, in)
	if err != nil {
		return nil, err
	}

	matchID := match.ID
	applied := make([]domain.MatchParticipant, len(roster))
	records := make([]domain.RatingChange, 0, len(roster))
	for i, p := range roster {
		change, ok := outcome.For(p.PlayerID)
		if !ok {
			return nil, fmt.Errorf("%w: no outcome for player %d", domain.ErrInvalidPlacementSet, p.PlayerID)
		}

		st := states[p.PlayerID]
		before := st.Elo
		st.Elo = st.Elo.Add(change.Delta)
		st.Apply(change.Result)

		p.Result = change.Result
		p.EloBefore = before.Raw()
		p.EloAfter = st.Elo.Raw()
		p.EloChange = change.Delta
		if err := sc.matches.RecordResult(ctx, p); err != nil {
			return nil, err
		}
		applied[i] = p

		records = append(records, domain.RatingChange{
			PlayerID:   p.PlayerID,
			EventID:    match.EventID,
			MatchID:    &matchID,
			OldElo:     before.Raw(),
			NewElo:     st.Elo.Raw(),
			Delta:      change.Delta,
			KFactor:    change.KFactor,
			Kind:       kind,
			RecordedAt: now,
		})
	}

	if err := sc.changes.Append(ctx, records...); err != nil {
		return nil, err
	}
	return applied, nil
}
