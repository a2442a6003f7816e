package scoring

import (
	"fmt"
	"math"
	"slices"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

// FreeForAll decomposes an N-player finish into every unordered pair and
// scales each player's K by 1/(N-1), so a full match moves a rating by at
// most one K.
type FreeForAll struct {
	k rating.KFactorParams
}

func (FreeForAll) Format() domain.Format { return domain.FormatFreeForAll }

func (s FreeForAll) Calculate(eventID int64, participants []Participant) (Outcome, error) {
	n := len(participants)
	if n < 3 {
		return Outcome{}, fmt.Errorf("%w: free-for-all needs at least 3 participants, got %d", domain.ErrInvalidPlacementSet, n)
	}
	if err := ensureDistinct(participants); err != nil {
		return Outcome{}, err
	}
	if err := validateRanking(participants); err != nil {
		return Outcome{}, err
	}

	kFull := make([]int, n)
	kScaled := make([]float64, n)
	for i, p := range participants {
		kFull[i] = s.k.KFactor(p.MatchesPlayed)
		kScaled[i] = float64(kFull[i]) / float64(n-1)
	}

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := participants[i], participants[j]
			scoreA := pairScore(a.Placement, b.Placement)
			ra, rb := float64(a.Elo.Raw()), float64(b.Elo.Raw())
			raw[i] += rating.RawDelta(ra, rb, scoreA, kScaled[i])
			raw[j] += rating.RawDelta(rb, ra, 1-scoreA, kScaled[j])
		}
	}

	winners := 0
	for _, p := range participants {
		if p.Placement == 1 {
			winners++
		}
	}

	changes := make([]Change, n)
	for i, p := range participants {
		res := domain.ResultLoss
		if p.Placement == 1 {
			res = domain.ResultWin
			if winners > 1 {
				res = domain.ResultDraw
			}
		}
		changes[i] = Change{
			PlayerID: p.PlayerID,
			Delta:    int(math.Round(raw[i])),
			KFactor:  kFull[i],
			Result:   res,
		}
	}

	return Outcome{EventID: eventID, Format: domain.FormatFreeForAll, Changes: changes}, nil
}

func pairScore(a, b int) float64 {
	switch {
	case a < b:
		return rating.Win
	case a > b:
		return rating.Loss
	}
	return rating.Draw
}

// validateRanking accepts placements that form a competition ranking over
// 1..N: a permutation when nobody ties, and equal placements followed by a
// skipped rank when they do (1,1,3). Gaps that no tie explains are rejected.
func validateRanking(participants []Participant) error {
	places := make([]int, len(participants))
	for i, p := range participants {
		places[i] = p.Placement
	}
	slices.Sort(places)

	for i, p := range places {
		if p == i+1 {
			continue
		}
		if i > 0 && p == places[i-1] {
			continue
		}
		return fmt.Errorf("%w: placements %v are not a competition ranking of 1..%d (tied players share a place and the next place is skipped, e.g. 1,1,3)", domain.ErrInvalidPlacementSet, places, len(places))
	}
	return nil
}
