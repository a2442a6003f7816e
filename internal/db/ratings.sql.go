package db

import (
	"context"
	"time"
)

const ensurePlayerEventRating = `
INSERT INTO player_event_ratings (player_id, event_id, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (player_id, event_id) DO NOTHING
`

type EnsurePlayerEventRatingParams struct {
	PlayerID  int64
	EventID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) EnsurePlayerEventRating(ctx context.Context, arg EnsurePlayerEventRatingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, ensurePlayerEventRating,
		arg.PlayerID,
		arg.EventID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getPlayerEventRating = `
SELECT player_id, event_id, raw_elo, scoring_elo, matches_played, wins, losses, draws, created_at, updated_at
FROM player_event_ratings
WHERE player_id = ? AND event_id = ?
`

type GetPlayerEventRatingParams struct {
	PlayerID int64
	EventID  int64
}

func (q *Queries) GetPlayerEventRating(ctx context.Context, arg GetPlayerEventRatingParams) (PlayerEventRating, error) {
	row := q.db.QueryRowContext(ctx, getPlayerEventRating, arg.PlayerID, arg.EventID)
	var i PlayerEventRating
	err := row.Scan(
		&i.PlayerID,
		&i.EventID,
		&i.RawElo,
		&i.ScoringElo,
		&i.MatchesPlayed,
		&i.Wins,
		&i.Losses,
		&i.Draws,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updatePlayerEventRating = `
UPDATE player_event_ratings
SET raw_elo = ?, scoring_elo = ?, matches_played = ?, wins = ?, losses = ?, draws = ?, updated_at = ?
WHERE player_id = ? AND event_id = ?
`

type UpdatePlayerEventRatingParams struct {
	RawElo        int64
	ScoringElo    int64
	MatchesPlayed int64
	Wins          int64
	Losses        int64
	Draws         int64
	UpdatedAt     time.Time
	PlayerID      int64
	EventID       int64
}

func (q *Queries) UpdatePlayerEventRating(ctx context.Context, arg UpdatePlayerEventRatingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlayerEventRating,
		arg.RawElo,
		arg.ScoringElo,
		arg.MatchesPlayed,
		arg.Wins,
		arg.Losses,
		arg.Draws,
		arg.UpdatedAt,
		arg.PlayerID,
		arg.EventID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRatingsByPlayer = `
SELECT r.player_id, r.event_id, e.cluster_id, r.raw_elo, r.scoring_elo, r.matches_played, r.wins, r.losses, r.draws, r.created_at, r.updated_at
FROM player_event_ratings r
JOIN events e ON e.id = r.event_id
WHERE r.player_id = ?
ORDER BY r.event_id
`

type ListRatingsByPlayerRow struct {
	PlayerID      int64
	EventID       int64
	ClusterID     int64
	RawElo        int64
	ScoringElo    int64
	MatchesPlayed int64
	Wins          int64
	Losses        int64
	Draws         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) ListRatingsByPlayer(ctx context.Context, playerID int64) ([]ListRatingsByPlayerRow, error) {
	rows, err := q.db.QueryContext(ctx, listRatingsByPlayer, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRatingsByPlayerRow
	for rows.Next() {
		var i ListRatingsByPlayerRow
		if err := rows.Scan(
			&i.PlayerID,
			&i.EventID,
			&i.ClusterID,
			&i.RawElo,
			&i.ScoringElo,
			&i.MatchesPlayed,
			&i.Wins,
			&i.Losses,
			&i.Draws,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listRatingsByEvent = `
SELECT player_id, event_id, raw_elo, scoring_elo, matches_played, wins, losses, draws, created_at, updated_at
FROM player_event_ratings
WHERE event_id = ?
ORDER BY raw_elo DESC, player_id
`

func (q *Queries) ListRatingsByEvent(ctx context.Context, eventID int64) ([]PlayerEventRating, error) {
	rows, err := q.db.QueryContext(ctx, listRatingsByEvent, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerEventRating
	for rows.Next() {
		var i PlayerEventRating
		if err := rows.Scan(
			&i.PlayerID,
			&i.EventID,
			&i.RawElo,
			&i.ScoringElo,
			&i.MatchesPlayed,
			&i.Wins,
			&i.Losses,
			&i.Draws,
			&i.CreatedAt,
			&i.UpdatedAt,
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
