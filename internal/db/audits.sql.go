package db

import (
	"context"
	"time"
)

const insertUndoAudit = `
INSERT INTO undo_audits (id, match_id, actor_id, reason, path, affected_players, replayed_matches, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertUndoAuditParams struct {
	ID              string
	MatchID         int64
	ActorID         int64
	Reason          string
	Path            string
	AffectedPlayers int64
	ReplayedMatches int64
	CreatedAt       time.Time
}

func (q *Queries) InsertUndoAudit(ctx context.Context, arg InsertUndoAuditParams) error {
	_, err := q.db.ExecContext(ctx, insertUndoAudit,
		arg.ID,
		arg.MatchID,
		arg.ActorID,
		arg.Reason,
		arg.Path,
		arg.AffectedPlayers,
		arg.ReplayedMatches,
		arg.CreatedAt,
	)
	return err
}

const listUndoAuditsByMatch = `
SELECT id, match_id, actor_id, reason, path, affected_players, replayed_matches, created_at
FROM undo_audits
WHERE match_id = ?
ORDER BY created_at, rowid
`

func (q *Queries) ListUndoAuditsByMatch(ctx context.Context, matchID int64) ([]UndoAudit, error) {
	rows, err := q.db.QueryContext(ctx, listUndoAuditsByMatch, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UndoAudit
	for rows.Next() {
		var i UndoAudit
		if err := rows.Scan(
			&i.ID,
			&i.MatchID,
			&i.ActorID,
			&i.Reason,
			&i.Path,
			&i.AffectedPlayers,
			&i.ReplayedMatches,
			&i.CreatedAt,
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
