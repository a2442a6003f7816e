package scoring

import (
	"fmt"
	"math"
	"slices"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

// Team judges two teams as single units: one comparison between the team
// averages at the standard K, applied identically to every member.
type Team struct {
	k rating.KFactorParams
}

func (Team) Format() domain.Format { return domain.FormatTeam }

type side struct {
	id        int
	placement int
	members   []Participant
}

func (s side) average() float64 {
	var sum float64
	for _, m := range s.members {
		sum += float64(m.Elo.Raw())
	}
	return sum / float64(len(s.members))
}

func (s Team) Calculate(eventID int64, participants []Participant) (Outcome, error) {
	if err := ensureDistinct(participants); err != nil {
		return Outcome{}, err
	}
	a, b, err := splitTeams(participants)
	if err != nil {
		return Outcome{}, err
	}

	var scoreA float64
	switch {
	case a.placement == 1 && b.placement == 2:
		scoreA = rating.Win
	case a.placement == 2 && b.placement == 1:
		scoreA = rating.Loss
	case a.placement == 1 && b.placement == 1:
		scoreA = rating.Draw
	default:
		return Outcome{}, fmt.Errorf("%w: team placements must be {1,2} or a declared draw {1,1}, got {%d,%d}",
			domain.ErrInvalidPlacementSet, a.placement, b.placement)
	}

	k := s.k.Standard
	delta := int(math.Round(rating.RawDelta(a.average(), b.average(), scoreA, float64(k))))

	resA, resB := resultFor(scoreA), resultFor(1-scoreA)
	changes := make([]Change, 0, len(participants))
	for _, p := range participants {
		c := Change{PlayerID: p.PlayerID, KFactor: k}
		if p.Team == a.id {
			c.Delta, c.Result = delta, resA
		} else {
			c.Delta, c.Result = -delta, resB
		}
		changes = append(changes, c)
	}

	return Outcome{EventID: eventID, Format: domain.FormatTeam, Changes: changes}, nil
}

// splitTeams partitions participants into exactly two non-empty teams whose
// members agree on a placement. The lower team id comes first.
func splitTeams(participants []Participant) (side, side, error) {
	byTeam := make(map[int]*side)
	var ids []int
	for _, p := range participants {
		if p.Team <= 0 {
			return side{}, side{}, fmt.Errorf("%w: player %d has no team", domain.ErrInvalidPlacementSet, p.PlayerID)
		}
		s, ok := byTeam[p.Team]
		if !ok {
			s = &side{id: p.Team, placement: p.Placement}
			byTeam[p.Team] = s
			ids = append(ids, p.Team)
		}
		if s.placement != p.Placement {
			return side{}, side{}, fmt.Errorf("%w: team %d members disagree on placement (%d vs %d)",
				domain.ErrInvalidPlacementSet, p.Team, s.placement, p.Placement)
		}
		s.members = append(s.members, p)
	}
	if len(ids) != 2 {
		return side{}, side{}, fmt.Errorf("%w: team match needs exactly 2 teams, got %d", domain.ErrInvalidPlacementSet, len(ids))
	}
	slices.Sort(ids)
	return *byTeam[ids[0]], *byTeam[ids[1]], nil
}
