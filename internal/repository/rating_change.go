package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
)

// RatingChangeRepository is the append-only rating history. The table
// rejects updates and deletes, so nothing here offers them.
type RatingChangeRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewRatingChangeRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *RatingChangeRepository {
	return &RatingChangeRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *RatingChangeRepository) WithTx(tx *sql.Tx) *RatingChangeRepository {
	return &RatingChangeRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *RatingChangeRepository) Append(ctx context.Context, records ...domain.RatingChange) error {
	for _, record := range records {
		id := record.ID
		if id == "" {
			var err error
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}

		err := r.queries.InsertRatingChange(ctx, db.InsertRatingChangeParams{
			ID:         id,
			PlayerID:   record.PlayerID,
			EventID:    record.EventID,
			MatchID:    record.MatchID,
			OldElo:     int64(record.OldElo),
			NewElo:     int64(record.NewElo),
			Delta:      int64(record.Delta),
			KFactor:    int64(record.KFactor),
			Kind:       string(record.Kind),
			RecordedAt: record.RecordedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to append rating change for player %d: %w", record.PlayerID, err)
		}
	}
	return nil
}

// List returns a player's history in one event, oldest first.
func (r *RatingChangeRepository) List(ctx context.Context, playerID, eventID int64) ([]domain.RatingChange, error) {
	rows, err := r.queries.ListRatingChanges(ctx, db.ListRatingChangesParams{
		PlayerID: playerID,
		EventID:  eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes for player %d event %d: %w", playerID, eventID, err)
	}
	return toRatingChanges(rows), nil
}

func (r *RatingChangeRepository) ListByMatch(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	rows, err := r.queries.ListRatingChangesByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes for match %d: %w", matchID, err)
	}
	return toRatingChanges(rows), nil
}

func toRatingChanges(rows []db.RatingChange) []domain.RatingChange {
	result := make([]domain.RatingChange, len(rows))
	for i, row := range rows {
		result[i] = domain.RatingChange{
			ID:         row.ID,
			PlayerID:   row.PlayerID,
			EventID:    row.EventID,
			MatchID:    row.MatchID,
			OldElo:     int(row.OldElo),
			NewElo:     int(row.NewElo),
			Delta:      int(row.Delta),
			KFactor:    int(row.KFactor),
			Kind:       domain.ChangeKind(row.Kind),
			RecordedAt: row.RecordedAt,
		}
	}
	return result
}
