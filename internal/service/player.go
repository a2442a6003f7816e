package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/repository"
)

// PlayerService keeps the player registry. Players are never deleted; a
// departing player is deactivated and keeps every rating and history row.
type PlayerService struct {
	repo       *repository.PlayerRepository
	matchRepo  *repository.MatchRepository
	changeRepo *repository.RatingChangeRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewPlayerService(
	repo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	changeRepo *repository.RatingChangeRepository,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		repo:       repo,
		matchRepo:  matchRepo,
		changeRepo: changeRepo,
		logger:     logger,
		now:        utcNow,
	}
}

// Register adds a player under their platform id, or refreshes the display
// name of a known one. A deactivated player is reactivated.
func (s *PlayerService) Register(ctx context.Context, id int64, displayName string) (domain.Player, error) {
	displayName = strings.TrimSpace(displayName)
	if id <= 0 {
		return domain.Player{}, fmt.Errorf("%w: player id %d", domain.ErrInvalidArgument, id)
	}
	if displayName == "" {
		return domain.Player{}, fmt.Errorf("%w: display name is empty", domain.ErrInvalidArgument)
	}

	player, err := s.repo.Upsert(ctx, id, displayName, s.now())
	if err != nil {
		s.logger.Error().Err(err).Int64("player_id", id).Msg("failed to register player")
		return domain.Player{}, err
	}
	s.logger.Info().Int64("player_id", id).Str("display_name", displayName).Msg("player registered")
	return player, nil
}

// Deactivate marks a player as departed. Their ratings stay in every
// aggregate; they can no longer enter matches or submit scores.
func (s *PlayerService) Deactivate(ctx context.Context, id int64) (domain.Player, error) {
	if err := s.repo.SetActive(ctx, id, false, s.now()); err != nil {
		return domain.Player{}, err
	}
	s.logger.Info().Int64("player_id", id).Msg("player deactivated")
	return s.repo.Get(ctx, id)
}

func (s *PlayerService) Get(ctx context.Context, id int64) (domain.Player, error) {
	return s.repo.Get(ctx, id)
}

// RecentMatches lists the player's latest matches, newest first.
func (s *PlayerService) RecentMatches(ctx context.Context, id int64, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = constants.HistoryDefaultLimit
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByPlayer(ctx, id, limit)
}

// RatingHistory returns the player's rating changes in one event, oldest
// first, undo entries included.
func (s *PlayerService) RatingHistory(ctx context.Context, id, eventID int64) ([]domain.RatingChange, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.changeRepo.List(ctx, id, eventID)
}
