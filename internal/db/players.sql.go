package db

import (
	"context"
	"time"
)

const upsertPlayer = `
INSERT INTO players (id, display_name, is_active, created_at, updated_at)
VALUES (?, ?, 1, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    display_name = excluded.display_name,
    is_active = 1,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	ID          int64
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.ID,
		arg.DisplayName,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPlayer = `
SELECT id, display_name, is_active, created_at, updated_at FROM players
WHERE id = ?
`

func (q *Queries) GetPlayer(ctx context.Context, id int64) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, id)
	var i Player
	err := row.Scan(
		&i.ID,
		&i.DisplayName,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setPlayerActive = `
UPDATE players
SET is_active = ?, updated_at = ?
WHERE id = ?
`

type SetPlayerActiveParams struct {
	IsActive  bool
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) SetPlayerActive(ctx context.Context, arg SetPlayerActiveParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setPlayerActive, arg.IsActive, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
