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
	"tournament-arc/internal/rating"
)

type RatingRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewRatingRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *RatingRepository {
	return &RatingRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *RatingRepository) WithTx(tx *sql.Tx) *RatingRepository {
	return &RatingRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

// EventRating is a per-event rating joined with the event's cluster.
type EventRating struct {
	domain.PlayerEventRating
	ClusterID int64
}

// GetOrCreate returns the player's rating for the event, creating it at the
// floor on first participation. A concurrent first touch lands on the same
// row instead of failing.
func (r *RatingRepository) GetOrCreate(ctx context.Context, playerID, eventID int64, now time.Time) (domain.PlayerEventRating, error) {
	created, err := r.queries.EnsurePlayerEventRating(ctx, db.EnsurePlayerEventRatingParams{
		PlayerID:  playerID,
		EventID:   eventID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	})
	if err != nil {
		return domain.PlayerEventRating{}, fmt.Errorf("failed to ensure rating for player %d event %d: %w", playerID, eventID, err)
	}
	if created > 0 {
		r.logger.Debug().
			Int64("player_id", playerID).
			Int64("event_id", eventID).
			Msg("created player event rating")
	}
	return r.Get(ctx, playerID, eventID)
}

func (r *RatingRepository) Get(ctx context.Context, playerID, eventID int64) (domain.PlayerEventRating, error) {
	row, err := r.queries.GetPlayerEventRating(ctx, db.GetPlayerEventRatingParams{
		PlayerID: playerID,
		EventID:  eventID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerEventRating{}, fmt.Errorf("%w: no rating for player %d in event %d", domain.ErrPlayerNotFound, playerID, eventID)
	}
	if err != nil {
		return domain.PlayerEventRating{}, fmt.Errorf("failed to get rating for player %d event %d: %w", playerID, eventID, err)
	}
	return toPlayerEventRating(row), nil
}

// Save writes the raw rating together with its floored projection.
func (r *RatingRepository) Save(ctx context.Context, pr domain.PlayerEventRating, now time.Time) error {
	n, err := r.queries.UpdatePlayerEventRating(ctx, db.UpdatePlayerEventRatingParams{
		RawElo:        int64(pr.Elo.Raw()),
		ScoringElo:    int64(pr.Elo.Scoring()),
		MatchesPlayed: int64(pr.MatchesPlayed),
		Wins:          int64(pr.Wins),
		Losses:        int64(pr.Losses),
		Draws:         int64(pr.Draws),
		UpdatedAt:     now.UTC(),
		PlayerID:      pr.PlayerID,
		EventID:       pr.EventID,
	})
	if err != nil {
		return fmt.Errorf("failed to save rating for player %d event %d: %w", pr.PlayerID, pr.EventID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no rating for player %d in event %d", domain.ErrPlayerNotFound, pr.PlayerID, pr.EventID)
	}
	return nil
}

func (r *RatingRepository) ListByPlayer(ctx context.Context, playerID int64) ([]EventRating, error) {
	rows, err := r.queries.ListRatingsByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for player %d: %w", playerID, err)
	}

	result := make([]EventRating, len(rows))
	for i, row := range rows {
		result[i] = EventRating{
			PlayerEventRating: domain.PlayerEventRating{
				PlayerID:      row.PlayerID,
				EventID:       row.EventID,
				Elo:           rating.Rating(row.RawElo),
				MatchesPlayed: int(row.MatchesPlayed),
				Wins:          int(row.Wins),
				Losses:        int(row.Losses),
				Draws:         int(row.Draws),
				CreatedAt:     row.CreatedAt,
				UpdatedAt:     row.UpdatedAt,
			},
			ClusterID: row.ClusterID,
		}
	}
	return result, nil
}

func (r *RatingRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.PlayerEventRating, error) {
	rows, err := r.queries.ListRatingsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for event %d: %w", eventID, err)
	}

	result := make([]domain.PlayerEventRating, len(rows))
	for i, row := range rows {
		result[i] = toPlayerEventRating(row)
	}
	return result, nil
}

func toPlayerEventRating(row db.PlayerEventRating) domain.PlayerEventRating {
	return domain.PlayerEventRating{
		PlayerID:      row.PlayerID,
		EventID:       row.EventID,
		Elo:           rating.Rating(row.RawElo),
		MatchesPlayed: int(row.MatchesPlayed),
		Wins:          int(row.Wins),
		Losses:        int(row.Losses),
		Draws:         int(row.Draws),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
