package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/repository"
)

type CatalogService struct {
	catalogRepo *repository.CatalogRepository
	logger      zerolog.Logger
	now         func() time.Time
}

func NewCatalogService(catalogRepo *repository.CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo, logger: logger, now: utcNow}
}

func (s *CatalogService) CreateCluster(ctx context.Context, name string) (domain.Cluster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Cluster{}, fmt.Errorf("%w: cluster name is empty", domain.ErrInvalidArgument)
	}

	cluster, err := s.catalogRepo.CreateCluster(ctx, name, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create cluster")
		return domain.Cluster{}, err
	}
	s.logger.Info().Int64("cluster_id", cluster.ID).Str("name", name).Msg("cluster created")
	return cluster, nil
}

// CreateEvent adds an event to a cluster. Leaderboard events must say which
// way scores improve and offer no other format; other events take no
// direction.
func (s *CatalogService) CreateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return domain.Event{}, fmt.Errorf("%w: event name is empty", domain.ErrInvalidArgument)
	}
	if len(e.Formats) == 0 {
		return domain.Event{}, fmt.Errorf("%w: event %q offers no format", domain.ErrInvalidArgument, e.Name)
	}
	seen := make(map[domain.Format]struct{}, len(e.Formats))
	for _, f := range e.Formats {
		if _, err := domain.ParseFormat(string(f)); err != nil {
			return domain.Event{}, fmt.Errorf("%w: %q", err, f)
		}
		if _, dup := seen[f]; dup {
			return domain.Event{}, fmt.Errorf("%w: format %s listed twice", domain.ErrInvalidArgument, f)
		}
		seen[f] = struct{}{}
	}

	switch {
	case e.Supports(domain.FormatLeaderboard):
		if len(e.Formats) > 1 {
			return domain.Event{}, fmt.Errorf("%w: leaderboard event %q cannot also host matches", domain.ErrInvalidArgument, e.Name)
		}
		if e.Direction != domain.HigherIsBetter && e.Direction != domain.LowerIsBetter {
			return domain.Event{}, fmt.Errorf("%w: leaderboard event %q needs a score direction", domain.ErrInvalidArgument, e.Name)
		}
	case e.Direction != "":
		return domain.Event{}, fmt.Errorf("%w: only leaderboard events take a score direction", domain.ErrInvalidArgument)
	}

	if _, err := s.catalogRepo.GetCluster(ctx, e.ClusterID); err != nil {
		return domain.Event{}, err
	}

	event, err := s.catalogRepo.CreateEvent(ctx, e, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("name", e.Name).Int64("cluster_id", e.ClusterID).Msg("failed to create event")
		return domain.Event{}, err
	}
	s.logger.Info().
		Int64("event_id", event.ID).
		Int64("cluster_id", event.ClusterID).
		Str("name", event.Name).
		Msg("event created")
	return event, nil
}

func (s *CatalogService) ListClusters(ctx context.Context) ([]domain.Cluster, error) {
	return s.catalogRepo.ListClusters(ctx)
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.catalogRepo.ListEvents(ctx)
}
