package scoring

import (
	"fmt"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

// OneVOne scores a head-to-head match. Placements are {1,2} for a decisive
// result or {1,1} for a declared draw; nothing else is accepted.
type OneVOne struct {
	k rating.KFactorParams
}

func (OneVOne) Format() domain.Format { return domain.FormatOneVOne }

func (s OneVOne) Calculate(eventID int64, participants []Participant) (Outcome, error) {
	if len(participants) != 2 {
		return Outcome{}, fmt.Errorf("%w: 1v1 needs exactly 2 participants, got %d", domain.ErrInvalidPlacementSet, len(participants))
	}
	if err := ensureDistinct(participants); err != nil {
		return Outcome{}, err
	}

	a, b := participants[0], participants[1]
	var scoreA float64
	switch {
	case a.Placement == 1 && b.Placement == 2:
		scoreA = rating.Win
	case a.Placement == 2 && b.Placement == 1:
		scoreA = rating.Loss
	case a.Placement == 1 && b.Placement == 1:
		scoreA = rating.Draw
	default:
		return Outcome{}, fmt.Errorf("%w: 1v1 placements must be {1,2} or a declared draw {1,1}, got {%d,%d}",
			domain.ErrInvalidPlacementSet, a.Placement, b.Placement)
	}
	scoreB := 1 - scoreA

	kA := s.k.KFactor(a.MatchesPlayed)
	kB := s.k.KFactor(b.MatchesPlayed)

	return Outcome{
		EventID: eventID,
		Format:  domain.FormatOneVOne,
		Changes: []Change{
			{PlayerID: a.PlayerID, Delta: rating.EloDelta(a.Elo.Raw(), b.Elo.Raw(), scoreA, kA), KFactor: kA, Result: resultFor(scoreA)},
			{PlayerID: b.PlayerID, Delta: rating.EloDelta(b.Elo.Raw(), a.Elo.Raw(), scoreB, kB), KFactor: kB, Result: resultFor(scoreB)},
		},
	}, nil
}
