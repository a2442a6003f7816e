package db

import (
	"context"
	"time"
)

const createMatch = `
INSERT INTO matches (event_id, format, status, created_at)
VALUES (?, ?, 'active', ?)
`

type CreateMatchParams struct {
	EventID   int64
	Format    string
	CreatedAt time.Time
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createMatch, arg.EventID, arg.Format, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getMatch = `
SELECT id, event_id, format, status, created_at, completed_at, cancelled_at FROM matches
WHERE id = ?
`

func (q *Queries) GetMatch(ctx context.Context, id int64) (Match, error) {
	row := q.db.QueryRowContext(ctx, getMatch, id)
	var i Match
	err := row.Scan(
		&i.ID,
		&i.EventID,
		&i.Format,
		&i.Status,
		&i.CreatedAt,
		&i.CompletedAt,
		&i.CancelledAt,
	)
	return i, err
}

const completeMatch = `
UPDATE matches
SET status = 'completed', completed_at = ?
WHERE id = ? AND status = 'active'
`

type CompleteMatchParams struct {
	CompletedAt time.Time
	ID          int64
}

func (q *Queries) CompleteMatch(ctx context.Context, arg CompleteMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeMatch, arg.CompletedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const cancelMatch = `
UPDATE matches
SET status = 'cancelled', cancelled_at = ?
WHERE id = ? AND status = 'completed'
`

type CancelMatchParams struct {
	CancelledAt time.Time
	ID          int64
}

func (q *Queries) CancelMatch(ctx context.Context, arg CancelMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, cancelMatch, arg.CancelledAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCompletedMatchesAfter = `
SELECT id, event_id, format, status, created_at, completed_at, cancelled_at FROM matches
WHERE event_id = ?
  AND status = 'completed'
  AND (completed_at > ? OR (completed_at = ? AND id > ?))
ORDER BY completed_at, id
`

type ListCompletedMatchesAfterParams struct {
	EventID     int64
	CompletedAt time.Time
	ID          int64
}

func (q *Queries) ListCompletedMatchesAfter(ctx context.Context, arg ListCompletedMatchesAfterParams) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listCompletedMatchesAfter,
		arg.EventID,
		arg.CompletedAt,
		arg.CompletedAt,
		arg.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Match
	for rows.Next() {
		var i Match
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.Format,
			&i.Status,
			&i.CreatedAt,
			&i.CompletedAt,
			&i.CancelledAt,
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

const listMatchesByPlayer = `
SELECT m.id, m.event_id, m.format, m.status, m.created_at, m.completed_at, m.cancelled_at
FROM matches m
JOIN match_participants p ON p.match_id = m.id
WHERE p.player_id = ?
ORDER BY m.id DESC
LIMIT ?
`

type ListMatchesByPlayerParams struct {
	PlayerID int64
	Limit    int64
}

func (q *Queries) ListMatchesByPlayer(ctx context.Context, arg ListMatchesByPlayerParams) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listMatchesByPlayer, arg.PlayerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Match
	for rows.Next() {
		var i Match
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.Format,
			&i.Status,
			&i.CreatedAt,
			&i.CompletedAt,
			&i.CancelledAt,
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

const addMatchParticipant = `
INSERT INTO match_participants (match_id, player_id, team)
VALUES (?, ?, ?)
`

type AddMatchParticipantParams struct {
	MatchID  int64
	PlayerID int64
	Team     *int64
}

func (q *Queries) AddMatchParticipant(ctx context.Context, arg AddMatchParticipantParams) error {
	_, err := q.db.ExecContext(ctx, addMatchParticipant, arg.MatchID, arg.PlayerID, arg.Team)
	return err
}

const listMatchParticipants = `
SELECT match_id, player_id, team, placement, result, elo_before, elo_after, elo_change
FROM match_participants
WHERE match_id = ?
ORDER BY player_id
`

func (q *Queries) ListMatchParticipants(ctx context.Context, matchID int64) ([]MatchParticipant, error) {
	rows, err := q.db.QueryContext(ctx, listMatchParticipants, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MatchParticipant
	for rows.Next() {
		var i MatchParticipant
		if err := rows.Scan(
			&i.MatchID,
			&i.PlayerID,
			&i.Team,
			&i.Placement,
			&i.Result,
			&i.EloBefore,
			&i.EloAfter,
			&i.EloChange,
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

const recordParticipantResult = `
UPDATE match_participants
SET placement = ?, result = ?, elo_before = ?, elo_after = ?, elo_change = ?
WHERE match_id = ? AND player_id = ?
`

type RecordParticipantResultParams struct {
	Placement int64
	Result    string
	EloBefore int64
	EloAfter  int64
	EloChange int64
	MatchID   int64
	PlayerID  int64
}

func (q *Queries) RecordParticipantResult(ctx context.Context, arg RecordParticipantResultParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, recordParticipantResult,
		arg.Placement,
		arg.Result,
		arg.EloBefore,
		arg.EloAfter,
		arg.EloChange,
		arg.MatchID,
		arg.PlayerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
