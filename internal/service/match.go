package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/api"
	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/metrics"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
)

// Entrant is one player joining a new match. Team is only read for team
// matches.
type Entrant struct {
	PlayerID int64
	Team     int
}

// Placement is one player's reported finishing position, 1 being best.
type Placement struct {
	PlayerID  int64
	Placement int
}

type MatchCompletionResult struct {
	MatchID      int64
	EventID      int64
	Format       domain.Format
	CompletedAt  time.Time
	Participants []domain.MatchParticipant
}

type MatchService struct {
	tx          *repository.TxRunner
	catalogRepo *repository.CatalogRepository
	playerRepo  *repository.PlayerRepository
	matchRepo   *repository.MatchRepository
	ratingRepo  *repository.RatingRepository
	changeRepo  *repository.RatingChangeRepository
	registry    *scoring.Registry
	webhook     *api.WebhookClient
	logger      zerolog.Logger
	now         func() time.Time
}

func NewMatchService(
	tx *repository.TxRunner,
	catalogRepo *repository.CatalogRepository,
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	ratingRepo *repository.RatingRepository,
	changeRepo *repository.RatingChangeRepository,
	registry *scoring.Registry,
	webhook *api.WebhookClient,
	logger zerolog.Logger,
) *MatchService {
	return &MatchService{
		tx:          tx,
		catalogRepo: catalogRepo,
		playerRepo:  playerRepo,
		matchRepo:   matchRepo,
		ratingRepo:  ratingRepo,
		changeRepo:  changeRepo,
		registry:    registry,
		webhook:     webhook,
		logger:      logger,
		now:         utcNow,
	}
}

// CreateMatch opens an active match in an event. The format is fixed for the
// life of the match.
func (s *MatchService) CreateMatch(ctx context.Context, eventID int64, format domain.Format, entrants []Entrant) (domain.Match, []domain.MatchParticipant, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, err := s.registry.For(format); err != nil {
		return domain.Match{}, nil, err
	}
	if format == domain.FormatLeaderboard {
		return domain.Match{}, nil, domain.ErrSubmissionOnly
	}
	if err := validateEntrants(format, entrants); err != nil {
		return domain.Match{}, nil, err
	}

	var (
		match        domain.Match
		participants []domain.MatchParticipant
	)
	err := s.tx.Serializable(ctx, "create_match", func(tx *sql.Tx) error {
		event, err := s.catalogRepo.WithTx(tx).GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.Supports(format) {
			return fmt.Errorf("%w: event %d does not offer %s", domain.ErrFormatNotSupported, eventID, format)
		}

		players := s.playerRepo.WithTx(tx)
		roster := make([]domain.MatchParticipant, len(entrants))
		for i, e := range entrants {
			if err := requireActive(ctx, players, e.PlayerID); err != nil {
				return err
			}
			roster[i] = domain.MatchParticipant{PlayerID: e.PlayerID}
			if format == domain.FormatTeam {
				roster[i].Team = e.Team
			}
		}

		matches := s.matchRepo.WithTx(tx)
		match, err = matches.Create(ctx, eventID, format, roster, s.now())
		if err != nil {
			return err
		}
		participants, err = matches.Participants(ctx, match.ID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("event_id", eventID).Str("format", string(format)).Msg("failed to create match")
		return domain.Match{}, nil, err
	}

	s.logger.Info().
		Int64("match_id", match.ID).
		Int64("event_id", eventID).
		Str("format", string(format)).
		Int("participants", len(participants)).
		Msg("match created")
	return match, participants, nil
}

// ReportMatchResult scores an active match with the strategy of its stored
// format and persists every participant's new rating in one transaction.
func (s *MatchService) ReportMatchResult(ctx context.Context, matchID int64, placements []Placement) (MatchCompletionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		result MatchCompletionResult
		deltas []api.PlayerDelta
	)
	err := s.tx.Serializable(ctx, "report_match_result", func(tx *sql.Tx) error {
		matches := s.matchRepo.WithTx(tx)
		ratings := s.ratingRepo.WithTx(tx)

		match, err := matches.Get(ctx, matchID)
		if err != nil {
			return err
		}
		if match.Status != domain.MatchActive {
			return fmt.Errorf("%w: match %d is %s", domain.ErrMatchNotActive, matchID, match.Status)
		}

		roster, err := matches.Participants(ctx, matchID)
		if err != nil {
			return err
		}
		if err := assignPlacements(roster, placements); err != nil {
			return err
		}

		strategy, err := s.registry.For(match.Format)
		if err != nil {
			return err
		}

		now := s.now()
		states := make(map[int64]*domain.PlayerEventRating, len(roster))
		for _, p := range roster {
			pr, err := ratings.GetOrCreate(ctx, p.PlayerID, match.EventID, now)
			if err != nil {
				return err
			}
			states[p.PlayerID] = &pr
		}

		sc := scorer{matches: matches, changes: s.changeRepo.WithTx(tx)}
		applied, err := sc.score(ctx, strategy, match, roster, states, domain.ChangeMatch, now)
		if err != nil {
			return err
		}

		for _, p := range applied {
			if err := ratings.Save(ctx, *states[p.PlayerID], now); err != nil {
				return err
			}
		}
		if err := matches.Complete(ctx, matchID, now); err != nil {
			return err
		}

		result = MatchCompletionResult{
			MatchID:      matchID,
			EventID:      match.EventID,
			Format:       match.Format,
			CompletedAt:  now,
			Participants: applied,
		}
		deltas = participantDeltas(applied)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("match_id", matchID).Msg("failed to report match result")
		return MatchCompletionResult{}, err
	}

	metrics.MatchesCompleted.WithLabelValues(string(result.Format)).Inc()
	s.logger.Info().
		Int64("match_id", matchID).
		Int64("event_id", result.EventID).
		Str("format", string(result.Format)).
		Int("participants", len(result.Participants)).
		Msg("match completed")

	s.webhook.Announce(ctx, api.Announcement{
		Kind:       api.AnnounceMatchCompleted,
		EventID:    result.EventID,
		MatchID:    matchID,
		Changes:    deltas,
		OccurredAt: result.CompletedAt,
	})
	return result, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID int64) (domain.Match, []domain.MatchParticipant, error) {
	match, err := s.matchRepo.Get(ctx, matchID)
	if err != nil {
		return domain.Match{}, nil, err
	}
	participants, err := s.matchRepo.Participants(ctx, matchID)
	if err != nil {
		return domain.Match{}, nil, err
	}
	return match, participants, nil
}

func validateEntrants(format domain.Format, entrants []Entrant) error {
	seen := make(map[int64]struct{}, len(entrants))
	for _, e := range entrants {
		if _, dup := seen[e.PlayerID]; dup {
			return fmt.Errorf("%w: player %d entered twice", domain.ErrInvalidPlacementSet, e.PlayerID)
		}
		seen[e.PlayerID] = struct{}{}
	}

	switch format {
	case domain.FormatOneVOne:
		if len(entrants) != 2 {
			return fmt.Errorf("%w: 1v1 needs 2 players, got %d", domain.ErrInvalidPlacementSet, len(entrants))
		}
	case domain.FormatFreeForAll:
		if len(entrants) < 3 {
			return fmt.Errorf("%w: free-for-all needs at least 3 players, got %d", domain.ErrInvalidPlacementSet, len(entrants))
		}
	case domain.FormatTeam:
		teams := make(map[int]int, 2)
		for _, e := range entrants {
			if e.Team == 0 {
				return fmt.Errorf("%w: player %d has no team", domain.ErrInvalidPlacementSet, e.PlayerID)
			}
			teams[e.Team]++
		}
		if len(teams) != 2 {
			return fmt.Errorf("%w: team match needs exactly 2 teams, got %d", domain.ErrInvalidPlacementSet, len(teams))
		}
	}
	return nil
}

// assignPlacements copies the reported placements onto the roster. Every
// roster player must be placed exactly once and nobody else may be.
func assignPlacements(roster []domain.MatchParticipant, placements []Placement) error {
	if len(placements) != len(roster) {
		return fmt.Errorf("%w: %d placements for %d players", domain.ErrInvalidPlacementSet, len(placements), len(roster))
	}

	byPlayer := make(map[int64]int, len(placements))
	for _, p := range placements {
		if _, dup := byPlayer[p.PlayerID]; dup {
			return fmt.Errorf("%w: player %d placed twice", domain.ErrInvalidPlacementSet, p.PlayerID)
		}
		byPlayer[p.PlayerID] = p.Placement
	}

	for i := range roster {
		placement, ok := byPlayer[roster[i].PlayerID]
		if !ok {
			return fmt.Errorf("%w: player %d has no placement", domain.ErrInvalidPlacementSet, roster[i].PlayerID)
		}
		roster[i].Placement = placement
	}
	return nil
}

func requireActive(ctx context.Context, players *repository.PlayerRepository, playerID int64) error {
	player, err := players.Get(ctx, playerID)
	if err != nil {
		return err
	}
	if !player.Active {
		return fmt.Errorf("%w: %d", domain.ErrPlayerInactive, playerID)
	}
	return nil
}

func participantDeltas(participants []domain.MatchParticipant) []api.PlayerDelta {
	out := make([]api.PlayerDelta, len(participants))
	for i, p := range participants {
		out[i] = api.PlayerDelta{
			PlayerID: p.PlayerID,
			OldElo:   p.EloBefore,
			NewElo:   p.EloAfter,
			Delta:    p.EloChange,
		}
	}
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
