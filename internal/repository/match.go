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

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *MatchRepository) WithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

// Create inserts an active match and its roster. Team is stored only when
// non-zero.
func (r *MatchRepository) Create(ctx context.Context, eventID int64, format domain.Format, roster []domain.MatchParticipant, now time.Time) (domain.Match, error) {
	id, err := r.queries.CreateMatch(ctx, db.CreateMatchParams{
		EventID:   eventID,
		Format:    string(format),
		CreatedAt: now.UTC(),
	})
	if err != nil {
		return domain.Match{}, fmt.Errorf("failed to create match: %w", err)
	}

	for _, p := range roster {
		var team *int64
		if p.Team != 0 {
			t := int64(p.Team)
			team = &t
		}
		if err := r.queries.AddMatchParticipant(ctx, db.AddMatchParticipantParams{
			MatchID:  id,
			PlayerID: p.PlayerID,
			Team:     team,
		}); err != nil {
			return domain.Match{}, fmt.Errorf("failed to add player %d to match %d: %w", p.PlayerID, id, err)
		}
	}

	return r.Get(ctx, id)
}

func (r *MatchRepository) Get(ctx context.Context, id int64) (domain.Match, error) {
	row, err := r.queries.GetMatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Match{}, fmt.Errorf("%w: %d", domain.ErrMatchNotFound, id)
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return toMatch(row), nil
}

func (r *MatchRepository) Participants(ctx context.Context, matchID int64) ([]domain.MatchParticipant, error) {
	rows, err := r.queries.ListMatchParticipants(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of match %d: %w", matchID, err)
	}

	result := make([]domain.MatchParticipant, len(rows))
	for i, row := range rows {
		result[i] = domain.MatchParticipant{
			MatchID:   row.MatchID,
			PlayerID:  row.PlayerID,
			Team:      int(deref(row.Team)),
			Placement: int(deref(row.Placement)),
			EloBefore: int(deref(row.EloBefore)),
			EloAfter:  int(deref(row.EloAfter)),
			EloChange: int(deref(row.EloChange)),
		}
		if row.Result != nil {
			result[i].Result = domain.Result(*row.Result)
		}
	}
	return result, nil
}

// RecordResult stores a participant's placement and rating snapshots.
func (r *MatchRepository) RecordResult(ctx context.Context, p domain.MatchParticipant) error {
	n, err := r.queries.RecordParticipantResult(ctx, db.RecordParticipantResultParams{
		Placement: int64(p.Placement),
		Result:    string(p.Result),
		EloBefore: int64(p.EloBefore),
		EloAfter:  int64(p.EloAfter),
		EloChange: int64(p.EloChange),
		MatchID:   p.MatchID,
		PlayerID:  p.PlayerID,
	})
	if err != nil {
		return fmt.Errorf("failed to record result for player %d in match %d: %w", p.PlayerID, p.MatchID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: player %d is not in match %d", domain.ErrInvalidPlacementSet, p.PlayerID, p.MatchID)
	}
	return nil
}

func (r *MatchRepository) Complete(ctx context.Context, id int64, at time.Time) error {
	n, err := r.queries.CompleteMatch(ctx, db.CompleteMatchParams{CompletedAt: at.UTC(), ID: id})
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrMatchNotActive, id)
	}
	return nil
}

func (r *MatchRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	n, err := r.queries.CancelMatch(ctx, db.CancelMatchParams{CancelledAt: at.UTC(), ID: id})
	if err != nil {
		return fmt.Errorf("failed to cancel match %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrNotCompleted, id)
	}
	return nil
}

// CompletedAfter lists the completed matches of m's event that sort after m
// in replay order.
func (r *MatchRepository) CompletedAfter(ctx context.Context, m domain.Match) ([]domain.Match, error) {
	if m.CompletedAt == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrNotCompleted, m.ID)
	}
	rows, err := r.queries.ListCompletedMatchesAfter(ctx, db.ListCompletedMatchesAfterParams{
		EventID:     m.EventID,
		CompletedAt: m.CompletedAt.UTC(),
		ID:          m.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches after %d: %w", m.ID, err)
	}

	result := make([]domain.Match, len(rows))
	for i, row := range rows {
		result[i] = toMatch(row)
	}
	return result, nil
}

func (r *MatchRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.Match, error) {
	rows, err := r.queries.ListMatchesByPlayer(ctx, db.ListMatchesByPlayerParams{
		PlayerID: playerID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for player %d: %w", playerID, err)
	}

	result := make([]domain.Match, len(rows))
	for i, row := range rows {
		result[i] = toMatch(row)
	}
	return result, nil
}

func toMatch(row db.Match) domain.Match {
	return domain.Match{
		ID:          row.ID,
		EventID:     row.EventID,
		Format:      domain.Format(row.Format),
		Status:      domain.MatchStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
		CancelledAt: row.CancelledAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
