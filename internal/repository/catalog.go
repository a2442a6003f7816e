package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
)

// CatalogRepository stores clusters and the events inside them.
type CatalogRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewCatalogRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *CatalogRepository) WithTx(tx *sql.Tx) *CatalogRepository {
	return &CatalogRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

func (r *CatalogRepository) CreateCluster(ctx context.Context, name string, now time.Time) (domain.Cluster, error) {
	id, err := r.queries.CreateCluster(ctx, db.CreateClusterParams{Name: name, CreatedAt: now.UTC()})
	if IsUniqueViolation(err) {
		return domain.Cluster{}, fmt.Errorf("%w: cluster %q", domain.ErrAlreadyExists, name)
	}
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to create cluster %q: %w", name, err)
	}
	return r.GetCluster(ctx, id)
}

func (r *CatalogRepository) GetCluster(ctx context.Context, id int64) (domain.Cluster, error) {
	row, err := r.queries.GetCluster(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cluster{}, fmt.Errorf("%w: %d", domain.ErrClusterNotFound, id)
	}
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to get cluster %d: %w", id, err)
	}
	return domain.Cluster{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (r *CatalogRepository) ListClusters(ctx context.Context) ([]domain.Cluster, error) {
	rows, err := r.queries.ListClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	result := make([]domain.Cluster, len(rows))
	for i, row := range rows {
		result[i] = domain.Cluster{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
	}
	return result, nil
}

func (r *CatalogRepository) CreateEvent(ctx context.Context, e domain.Event, now time.Time) (domain.Event, error) {
	var dir *string
	if e.Direction != "" {
		d := string(e.Direction)
		dir = &d
	}

	id, err := r.queries.CreateEvent(ctx, db.CreateEventParams{
		ClusterID:      e.ClusterID,
		Name:           e.Name,
		Formats:        joinFormats(e.Formats),
		ScoreDirection: dir,
		CreatedAt:      now.UTC(),
	})
	if IsUniqueViolation(err) {
		return domain.Event{}, fmt.Errorf("%w: event %q in cluster %d", domain.ErrAlreadyExists, e.Name, e.ClusterID)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to create event %q: %w", e.Name, err)
	}
	return r.GetEvent(ctx, id)
}

func (r *CatalogRepository) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	row, err := r.queries.GetEvent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("%w: %d", domain.ErrEventNotFound, id)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return toEvent(row)
}

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.queries.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	result := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		e, err := toEvent(row)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func toEvent(row db.Event) (domain.Event, error) {
	e := domain.Event{
		ID:        row.ID,
		ClusterID: row.ClusterID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
	for _, s := range strings.Split(row.Formats, ",") {
		f, err := domain.ParseFormat(s)
		if err != nil {
			return domain.Event{}, fmt.Errorf("event %d has stored format %q: %w", row.ID, s, err)
		}
		e.Formats = append(e.Formats, f)
	}
	if row.ScoreDirection != nil {
		e.Direction = domain.ScoreDirection(*row.ScoreDirection)
	}
	return e, nil
}

func joinFormats(formats []domain.Format) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
