package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, id int64) (domain.Player, error) {
	player, err := r.queries.GetPlayer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, fmt.Errorf("%w: %d", domain.ErrPlayerNotFound, id)
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("failed to get player %d: %w", id, err)
	}

	return domain.Player{
		ID:          player.ID,
		DisplayName: player.DisplayName,
		Active:      player.IsActive,
		CreatedAt:   player.CreatedAt,
		UpdatedAt:   player.UpdatedAt,
	}, nil
}

// Upsert registers a player or refreshes their display name. Registering an
// inactive player reactivates them.
func (r *PlayerRepository) Upsert(ctx context.Context, id int64, displayName string, now time.Time) (domain.Player, error) {
	err := r.queries.UpsertPlayer(ctx, db.UpsertPlayerParams{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	})
	if err != nil {
		return domain.Player{}, fmt.Errorf("failed to upsert player %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

func (r *PlayerRepository) SetActive(ctx context.Context, id int64, active bool, now time.Time) error {
	n, err := r.queries.SetPlayerActive(ctx, db.SetPlayerActiveParams{
		IsActive:  active,
		UpdatedAt: now.UTC(),
		ID:        id,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("player_id", id).Msg("failed to set player active flag")
		return fmt.Errorf("failed to update player %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrPlayerNotFound, id)
	}

	r.logger.Debug().
		Int64("player_id", id).
		Bool("active", active).
		Msg("player active flag set")
	return nil
}
