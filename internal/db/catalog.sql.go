package db

import (
	"context"
	"time"
)

const createCluster = `
INSERT INTO clusters (name, created_at)
VALUES (?, ?)
`

type CreateClusterParams struct {
	Name      string
	CreatedAt time.Time
}

func (q *Queries) CreateCluster(ctx context.Context, arg CreateClusterParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createCluster, arg.Name, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getCluster = `
SELECT id, name, created_at FROM clusters
WHERE id = ?
`

func (q *Queries) GetCluster(ctx context.Context, id int64) (Cluster, error) {
	row := q.db.QueryRowContext(ctx, getCluster, id)
	var i Cluster
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listClusters = `
SELECT id, name, created_at FROM clusters
ORDER BY id
`

func (q *Queries) ListClusters(ctx context.Context) ([]Cluster, error) {
	rows, err := q.db.QueryContext(ctx, listClusters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Cluster
	for rows.Next() {
		var i Cluster
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
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

const createEvent = `
INSERT INTO events (cluster_id, name, formats, score_direction, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateEventParams struct {
	ClusterID      int64
	Name           string
	Formats        string
	ScoreDirection *string
	CreatedAt      time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createEvent,
		arg.ClusterID,
		arg.Name,
		arg.Formats,
		arg.ScoreDirection,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getEvent = `
SELECT id, cluster_id, name, formats, score_direction, created_at FROM events
WHERE id = ?
`

func (q *Queries) GetEvent(ctx context.Context, id int64) (Event, error) {
	row := q.db.QueryRowContext(ctx, getEvent, id)
	var i Event
	err := row.Scan(
		&i.ID,
		&i.ClusterID,
		&i.Name,
		&i.Formats,
		&i.ScoreDirection,
		&i.CreatedAt,
	)
	return i, err
}

const listEvents = `
SELECT id, cluster_id, name, formats, score_direction, created_at FROM events
ORDER BY id
`

func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(
			&i.ID,
			&i.ClusterID,
			&i.Name,
			&i.Formats,
			&i.ScoreDirection,
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
