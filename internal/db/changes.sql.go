package db

import (
	"context"
	"time"
)

const insertRatingChange = `
INSERT INTO rating_changes (id, player_id, event_id, match_id, old_elo, new_elo, delta, k_factor, kind, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertRatingChangeParams struct {
	ID         string
	PlayerID   int64
	EventID    int64
	MatchID    *int64
	OldElo     int64
	NewElo     int64
	Delta      int64
	KFactor    int64
	Kind       string
	RecordedAt time.Time
}

func (q *Queries) InsertRatingChange(ctx context.Context, arg InsertRatingChangeParams) error {
	_, err := q.db.ExecContext(ctx, insertRatingChange,
		arg.ID,
		arg.PlayerID,
		arg.EventID,
		arg.MatchID,
		arg.OldElo,
		arg.NewElo,
		arg.Delta,
		arg.KFactor,
		arg.Kind,
		arg.RecordedAt,
	)
	return err
}

const listRatingChanges = `
SELECT id, player_id, event_id, match_id, old_elo, new_elo, delta, k_factor, kind, recorded_at
FROM rating_changes
WHERE player_id = ? AND event_id = ?
ORDER BY recorded_at, rowid
`

type ListRatingChangesParams struct {
	PlayerID int64
	EventID  int64
}

func (q *Queries) ListRatingChanges(ctx context.Context, arg ListRatingChangesParams) ([]RatingChange, error) {
	rows, err := q.db.QueryContext(ctx, listRatingChanges, arg.PlayerID, arg.EventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RatingChange
	for rows.Next() {
		var i RatingChange
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.EventID,
			&i.MatchID,
			&i.OldElo,
			&i.NewElo,
			&i.Delta,
			&i.KFactor,
			&i.Kind,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRatingChangesByMatch = `
SELECT id, player_id, event_id, match_id, old_elo, new_elo, delta, k_factor, kind, recorded_at
FROM rating_changes
WHERE match_id = ?
ORDER BY recorded_at, rowid
`

func (q *Queries) ListRatingChangesByMatch(ctx context.Context, matchID int64) ([]RatingChange, error) {
	rows, err := q.db.QueryContext(ctx, listRatingChangesByMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RatingChange
	for rows.Next() {
		var i RatingChange
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.EventID,
			&i.MatchID,
			&i.OldElo,
			&i.NewElo,
			&i.Delta,
			&i.KFactor,
			&i.Kind,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
