package service

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/api"
	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/leaderboard"
	"tournament-arc/internal/metrics"
	"tournament-arc/internal/rating"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
)

type SubmissionResult struct {
	Submission   domain.LeaderboardSubmission
	PersonalBest bool
	// Normalized is false when the all-time pass did not run, either because
	// the score was no personal best or the population is still too small.
	Normalized bool
	Population int
	AllTimeElo *float64
	EventElo   rating.Rating
}

type WeekCloseResult struct {
	EventID    int64
	WeekNumber int
	Stats      leaderboard.Stats
	Results    []domain.WeeklyResult
}

type LeaderboardService struct {
	tx          *repository.TxRunner
	catalogRepo *repository.CatalogRepository
	playerRepo  *repository.PlayerRepository
	boardRepo   *repository.LeaderboardRepository
	ratingRepo  *repository.RatingRepository
	changeRepo  *repository.RatingChangeRepository
	strategy    scoring.Leaderboard
	normalizer  *leaderboard.Normalizer
	webhook     *api.WebhookClient
	logger      zerolog.Logger
	now         func() time.Time
}

func NewLeaderboardService(
	tx *repository.TxRunner,
	catalogRepo *repository.CatalogRepository,
	playerRepo *repository.PlayerRepository,
	boardRepo *repository.LeaderboardRepository,
	ratingRepo *repository.RatingRepository,
	changeRepo *repository.RatingChangeRepository,
	registry *scoring.Registry,
	params rating.Params,
	webhook *api.WebhookClient,
	logger zerolog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		tx:          tx,
		catalogRepo: catalogRepo,
		playerRepo:  playerRepo,
		boardRepo:   boardRepo,
		ratingRepo:  ratingRepo,
		changeRepo:  changeRepo,
		strategy:    registry.Leaderboard(),
		normalizer:  leaderboard.NewNormalizer(params),
		webhook:     webhook,
		logger:      logger,
		now:         utcNow,
	}
}

type boardTx struct {
	board   *repository.LeaderboardRepository
	ratings *repository.RatingRepository
	changes *repository.RatingChangeRepository
}

func (s *LeaderboardService) bind(tx *sql.Tx) boardTx {
	return boardTx{
		board:   s.boardRepo.WithTx(tx),
		ratings: s.ratingRepo.WithTx(tx),
		changes: s.changeRepo.WithTx(tx),
	}
}

// SubmitScore stores a raw score. A personal best reruns the all-time pass
// for the whole event and refreshes every player's composite rating.
func (s *LeaderboardService) SubmitScore(ctx context.Context, playerID, eventID int64, raw float64) (SubmissionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return SubmissionResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidScore, raw)
	}

	var result SubmissionResult
	err := s.tx.Serializable(ctx, "submit_leaderboard_score", func(tx *sql.Tx) error {
		event, err := s.leaderboardEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := requireActive(ctx, s.playerRepo.WithTx(tx), playerID); err != nil {
			return err
		}

		now := s.now()
		r := s.bind(tx)

		sub, err := r.board.AddSubmission(ctx, domain.LeaderboardSubmission{
			PlayerID:    playerID,
			EventID:     eventID,
			RawScore:    raw,
			SubmittedAt: now,
			WeekNumber:  domain.WeekNumber(now),
		})
		if err != nil {
			return err
		}
		result = SubmissionResult{Submission: sub}

		pr, err := r.ratings.GetOrCreate(ctx, playerID, eventID, now)
		if err != nil {
			return err
		}
		pr.MatchesPlayed++
		if err := r.ratings.Save(ctx, pr, now); err != nil {
			return err
		}

		standing, err := r.board.Standing(ctx, playerID, eventID)
		if err != nil {
			return err
		}
		var previous *float64
		if standing != nil {
			previous = &standing.PersonalBest
		}
		result.PersonalBest = s.strategy.IsPersonalBest(previous, raw, event.Direction)

		if result.PersonalBest {
			if err := r.board.SetPersonalBest(ctx, playerID, eventID, raw, now); err != nil {
				return err
			}
			stats, err := s.allTimePass(ctx, r, event, now)
			switch {
			case errors.Is(err, domain.ErrInsufficientPopulation):
				result.Population = stats.Population
			case err != nil:
				return err
			default:
				result.Normalized = true
				result.Population = stats.Population
				if err := s.refreshComposites(ctx, r, eventID, now); err != nil {
					return err
				}
			}
		}

		if standing, err = r.board.Standing(ctx, playerID, eventID); err != nil {
			return err
		}
		if standing != nil {
			result.AllTimeElo = standing.AllTimeElo
		}
		pr, err = r.ratings.Get(ctx, playerID, eventID)
		if err != nil {
			return err
		}
		result.EventElo = pr.Elo
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("player_id", playerID).Int64("event_id", eventID).Msg("failed to submit leaderboard score")
		return SubmissionResult{}, err
	}

	metrics.LeaderboardSubmissions.WithLabelValues(fmt.Sprint(result.PersonalBest)).Inc()
	s.logger.Info().
		Int64("player_id", playerID).
		Int64("event_id", eventID).
		Float64("score", raw).
		Bool("personal_best", result.PersonalBest).
		Bool("normalized", result.Normalized).
		Msg("leaderboard score submitted")
	return result, nil
}

// CloseWeek runs the weekly pass over each player's best score of the week
// and records it permanently. week 0 means the current week. A week closes
// once.
func (s *LeaderboardService) CloseWeek(ctx context.Context, eventID int64, week int) (WeekCloseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var result WeekCloseResult
	err := s.tx.Serializable(ctx, "close_leaderboard_week", func(tx *sql.Tx) error {
		event, err := s.leaderboardEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		now := s.now()
		if week == 0 {
			week = domain.WeekNumber(now)
		}
		r := s.bind(tx)

		closed, err := r.board.Week(ctx, eventID, week)
		if err != nil {
			return err
		}
		if closed != nil {
			return fmt.Errorf("%w: event %d week %d", domain.ErrWeekAlreadyClosed, eventID, week)
		}

		best, err := r.board.WeekBestScores(ctx, eventID, week, event.Direction)
		if err != nil {
			return err
		}
		rated, stats, err := s.normalizer.Normalize(sortedScores(best), event.Direction)
		if err != nil {
			metrics.NormalizationRuns.WithLabelValues("weekly", outcomeLabel(err)).Inc()
			return err
		}
		metrics.NormalizationRuns.WithLabelValues("weekly", "ok").Inc()

		results := make([]domain.WeeklyResult, len(rated))
		for i, rt := range rated {
			results[i] = domain.WeeklyResult{
				EventID:    eventID,
				WeekNumber: week,
				PlayerID:   rt.PlayerID,
				Score:      rt.Score,
				WeeklyElo:  rt.Elo,
				ClosedAt:   now,
			}
		}
		err = r.board.CloseWeek(ctx, repository.WeekSummary{
			EventID:    eventID,
			WeekNumber: week,
			Population: stats.Population,
			Mean:       stats.Mean,
			StdDev:     stats.StdDev,
			ClosedAt:   now,
		}, results)
		if err != nil {
			return err
		}

		if err := s.refreshComposites(ctx, r, eventID, now); err != nil {
			return err
		}

		result = WeekCloseResult{
			EventID:    eventID,
			WeekNumber: week,
			Stats:      stats,
			Results:    results,
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("event_id", eventID).Int("week", week).Msg("failed to close leaderboard week")
		return WeekCloseResult{}, err
	}

	s.logger.Info().
		Int64("event_id", eventID).
		Int("week", result.WeekNumber).
		Int("population", result.Stats.Population).
		Float64("mean", result.Stats.Mean).
		Float64("stddev", result.Stats.StdDev).
		Msg("leaderboard week closed")

	s.webhook.Announce(ctx, api.Announcement{
		Kind:       api.AnnounceWeekClosed,
		EventID:    eventID,
		WeekNumber: result.WeekNumber,
		OccurredAt: s.now(),
	})
	return result, nil
}

func (s *LeaderboardService) WeeklyResults(ctx context.Context, eventID int64, week int) ([]domain.WeeklyResult, error) {
	return s.boardRepo.WeeklyResults(ctx, eventID, week)
}

func (s *LeaderboardService) leaderboardEvent(ctx context.Context, tx *sql.Tx, eventID int64) (domain.Event, error) {
	event, err := s.catalogRepo.WithTx(tx).GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if !event.Supports(domain.FormatLeaderboard) || event.Direction == "" {
		return domain.Event{}, fmt.Errorf("%w: event %d is not a leaderboard", domain.ErrFormatNotSupported, eventID)
	}
	return event, nil
}

// allTimePass rates every player's personal best against the event's whole
// population.
func (s *LeaderboardService) allTimePass(ctx context.Context, r boardTx, event domain.Event, now time.Time) (leaderboard.Stats, error) {
	standings, err := r.board.Standings(ctx, event.ID)
	if err != nil {
		return leaderboard.Stats{}, err
	}

	scores := make([]leaderboard.Score, len(standings))
	for i, st := range standings {
		scores[i] = leaderboard.Score{PlayerID: st.PlayerID, Value: st.PersonalBest}
	}

	rated, stats, err := s.normalizer.Normalize(scores, event.Direction)
	if err != nil {
		metrics.NormalizationRuns.WithLabelValues("all_time", outcomeLabel(err)).Inc()
		if errors.Is(err, domain.ErrInsufficientPopulation) {
			s.logger.Debug().
				Int64("event_id", event.ID).
				Int("population", len(scores)).
				Msg("all-time pass skipped")
			return leaderboard.Stats{Population: len(scores)}, err
		}
		return leaderboard.Stats{}, err
	}
	metrics.NormalizationRuns.WithLabelValues("all_time", "ok").Inc()

	for _, rt := range rated {
		if err := r.board.SetAllTimeElo(ctx, rt.PlayerID, event.ID, rt.Elo, now); err != nil {
			return leaderboard.Stats{}, err
		}
	}
	return stats, nil
}

// refreshComposites writes each rated player's composite into their event
// rating, so leaderboard events feed the hierarchy like any other event.
func (s *LeaderboardService) refreshComposites(ctx context.Context, r boardTx, eventID int64, now time.Time) error {
	standings, err := r.board.Standings(ctx, eventID)
	if err != nil {
		return err
	}
	weeks, err := r.board.ClosedWeeks(ctx, eventID)
	if err != nil {
		return err
	}
	sums, err := r.board.WeeklyEloSums(ctx, eventID)
	if err != nil {
		return err
	}

	for _, st := range standings {
		if st.AllTimeElo == nil {
			continue
		}
		composite := rating.Rating(math.Round(s.normalizer.Composite(*st.AllTimeElo, sums[st.PlayerID], weeks)))

		pr, err := r.ratings.GetOrCreate(ctx, st.PlayerID, eventID, now)
		if err != nil {
			return err
		}
		if pr.Elo == composite {
			continue
		}

		old := pr.Elo
		pr.Elo = composite
		if err := r.ratings.Save(ctx, pr, now); err != nil {
			return err
		}
		err = r.changes.Append(ctx, domain.RatingChange{
			PlayerID:   st.PlayerID,
			EventID:    eventID,
			OldElo:     old.Raw(),
			NewElo:     composite.Raw(),
			Delta:      composite.Raw() - old.Raw(),
			Kind:       domain.ChangeLeaderboard,
			RecordedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedScores(best map[int64]float64) []leaderboard.Score {
	scores := make([]leaderboard.Score, 0, len(best))
	for id, v := range best {
		scores = append(scores, leaderboard.Score{PlayerID: id, Value: v})
	}
	slices.SortFunc(scores, func(a, b leaderboard.Score) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	return scores
}

func outcomeLabel(err error) string {
	if errors.Is(err, domain.ErrInsufficientPopulation) {
		return "insufficient_population"
	}
	return "error"
}
