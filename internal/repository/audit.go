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

type UndoAuditRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewUndoAuditRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *UndoAuditRepository {
	return &UndoAuditRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *UndoAuditRepository) WithTx(tx *sql.Tx) *UndoAuditRepository {
	return &UndoAuditRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *UndoAuditRepository) Record(ctx context.Context, a domain.UndoAudit) (domain.UndoAudit, error) {
	if a.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return domain.UndoAudit{}, fmt.Errorf("failed to generate nanoid: %w", err)
		}
		a.ID = id
	}
	a.CreatedAt = a.CreatedAt.UTC()

	err := r.queries.InsertUndoAudit(ctx, db.InsertUndoAuditParams{
		ID:              a.ID,
		MatchID:         a.MatchID,
		ActorID:         a.ActorID,
		Reason:          a.Reason,
		Path:            string(a.Path),
		AffectedPlayers: int64(a.AffectedPlayers),
		ReplayedMatches: int64(a.ReplayedMatches),
		CreatedAt:       a.CreatedAt,
	})
	if err != nil {
		return domain.UndoAudit{}, fmt.Errorf("failed to record undo of match %d: %w", a.MatchID, err)
	}
	return a, nil
}

func (r *UndoAuditRepository) ListByMatch(ctx context.Context, matchID int64) ([]domain.UndoAudit, error) {
	rows, err := r.queries.ListUndoAuditsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list undo audits for match %d: %w", matchID, err)
	}
	result := make([]domain.UndoAudit, len(rows))
	for i, row := range rows {
		result[i] = domain.UndoAudit{
			ID:              row.ID,
			MatchID:         row.MatchID,
			ActorID:         row.ActorID,
			Reason:          row.Reason,
			Path:            domain.UndoPath(row.Path),
			AffectedPlayers: int(row.AffectedPlayers),
			ReplayedMatches: int(row.ReplayedMatches),
			CreatedAt:       row.CreatedAt,
		}
	}
	return result, nil
}
