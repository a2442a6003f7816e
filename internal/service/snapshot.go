package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/hierarchy"
	"tournament-arc/internal/rating"
	"tournament-arc/internal/repository"
)

// PlayerRatingSnapshot is a player's full rating picture: every event rating,
// the cluster ratings folded from them and the overall rating.
type PlayerRatingSnapshot struct {
	Player  domain.Player
	Ratings []repository.EventRating
	hierarchy.Snapshot
}

type SnapshotService struct {
	playerRepo  *repository.PlayerRepository
	ratingRepo  *repository.RatingRepository
	catalogRepo *repository.CatalogRepository
	calculator  *hierarchy.Calculator
	logger      zerolog.Logger
}

func NewSnapshotService(
	playerRepo *repository.PlayerRepository,
	ratingRepo *repository.RatingRepository,
	catalogRepo *repository.CatalogRepository,
	params rating.Params,
	logger zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{
		playerRepo:  playerRepo,
		ratingRepo:  ratingRepo,
		catalogRepo: catalogRepo,
		calculator:  hierarchy.NewCalculator(params),
		logger:      logger,
	}
}

func (s *SnapshotService) GetPlayerRatingSnapshot(ctx context.Context, playerID int64) (PlayerRatingSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	var (
		player  domain.Player
		ratings []repository.EventRating
	)

	g.Go(func() error {
		var err error
		player, err = s.playerRepo.Get(gCtx, playerID)
		return err
	})

	g.Go(func() error {
		var err error
		ratings, err = s.ratingRepo.ListByPlayer(gCtx, playerID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to load rating snapshot")
		return PlayerRatingSnapshot{}, fmt.Errorf("failed to load rating snapshot: %w", err)
	}

	events := make([]hierarchy.EventRating, len(ratings))
	for i, r := range ratings {
		events[i] = hierarchy.EventRating{
			EventID:   r.EventID,
			ClusterID: r.ClusterID,
			Elo:       r.Elo,
		}
	}

	snap := PlayerRatingSnapshot{
		Player:   player,
		Ratings:  ratings,
		Snapshot: s.calculator.Build(events),
	}

	s.logger.Debug().
		Int64("player_id", playerID).
		Int("events", len(snap.Events)).
		Int("clusters", len(snap.Clusters)).
		Float64("overall", snap.Overall.Elo.Raw()).
		Msg("rating snapshot built")
	return snap, nil
}

// GetEventStandings ranks an event's players by scoring rating.
func (s *SnapshotService) GetEventStandings(ctx context.Context, eventID int64, limit int) ([]hierarchy.Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.StandingsDefaultLimit
	}
	limit = min(limit, constants.StandingsMaxLimit)

	if _, err := s.catalogRepo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	ratings, err := s.ratingRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	entries := make([]hierarchy.Standing, len(ratings))
	for i, r := range ratings {
		entries[i] = hierarchy.Standing{PlayerID: r.PlayerID, Value: float64(r.Elo.Scoring())}
	}
	ranked := hierarchy.Rank(entries)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
