package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
)

type LeaderboardRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewLeaderboardRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *LeaderboardRepository) WithTx(tx *sql.Tx) *LeaderboardRepository {
	return &LeaderboardRepository{
		queries: r.queries.WithTx(tx),
		db:      r.db,
		logger:  r.logger,
	}
}

// WeekSummary is the population statistics of a closed week.
type WeekSummary struct {
	EventID    int64
	WeekNumber int
	Population int
	Mean       float64
	StdDev     float64
	ClosedAt   time.Time
}

func (r *LeaderboardRepository) AddSubmission(ctx context.Context, s domain.LeaderboardSubmission) (domain.LeaderboardSubmission, error) {
	if s.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return domain.LeaderboardSubmission{}, fmt.Errorf("failed to generate nanoid: %w", err)
		}
		s.ID = id
	}
	s.SubmittedAt = s.SubmittedAt.UTC()

	err := r.queries.InsertLeaderboardSubmission(ctx, db.InsertLeaderboardSubmissionParams{
		ID:          s.ID,
		PlayerID:    s.PlayerID,
		EventID:     s.EventID,
		RawScore:    s.RawScore,
		SubmittedAt: s.SubmittedAt,
		WeekNumber:  int64(s.WeekNumber),
	})
	if err != nil {
		return domain.LeaderboardSubmission{}, fmt.Errorf("failed to store submission for player %d: %w", s.PlayerID, err)
	}
	return s, nil
}

// Standing returns the player's standing, or nil when they have never
// submitted to the event.
func (r *LeaderboardRepository) Standing(ctx context.Context, playerID, eventID int64) (*domain.LeaderboardStanding, error) {
	row, err := r.queries.GetLeaderboardStanding(ctx, db.GetLeaderboardStandingParams{
		PlayerID: playerID,
		EventID:  eventID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get standing for player %d event %d: %w", playerID, eventID, err)
	}
	s := toStanding(row)
	return &s, nil
}

func (r *LeaderboardRepository) SetPersonalBest(ctx context.Context, playerID, eventID int64, score float64, now time.Time) error {
	err := r.queries.UpsertPersonalBest(ctx, db.UpsertPersonalBestParams{
		PlayerID:     playerID,
		EventID:      eventID,
		PersonalBest: score,
		UpdatedAt:    now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to set personal best for player %d event %d: %w", playerID, eventID, err)
	}
	return nil
}

func (r *LeaderboardRepository) Standings(ctx context.Context, eventID int64) ([]domain.LeaderboardStanding, error) {
	rows, err := r.queries.ListLeaderboardStandings(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for event %d: %w", eventID, err)
	}
	result := make([]domain.LeaderboardStanding, len(rows))
	for i, row := range rows {
		result[i] = toStanding(row)
	}
	return result, nil
}

func (r *LeaderboardRepository) SetAllTimeElo(ctx context.Context, playerID, eventID int64, elo float64, now time.Time) error {
	err := r.queries.SetAllTimeElo(ctx, db.SetAllTimeEloParams{
		AllTimeElo: elo,
		UpdatedAt:  now.UTC(),
		PlayerID:   playerID,
		EventID:    eventID,
	})
	if err != nil {
		return fmt.Errorf("failed to set all-time rating for player %d event %d: %w", playerID, eventID, err)
	}
	return nil
}

// WeekBestScores returns each player's best score of the week.
func (r *LeaderboardRepository) WeekBestScores(ctx context.Context, eventID int64, week int, dir domain.ScoreDirection) (map[int64]float64, error) {
	arg := db.ListWeekScoresParams{EventID: eventID, WeekNumber: int64(week)}
	var (
		rows []db.ListWeekScoresRow
		err  error
	)
	if dir == domain.LowerIsBetter {
		rows, err = r.queries.ListWeekLowScores(ctx, arg)
	} else {
		rows, err = r.queries.ListWeekHighScores(ctx, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list week %d scores for event %d: %w", week, eventID, err)
	}

	result := make(map[int64]float64, len(rows))
	for _, row := range rows {
		result[row.PlayerID] = row.Score
	}
	return result, nil
}

func (r *LeaderboardRepository) Week(ctx context.Context, eventID int64, week int) (*WeekSummary, error) {
	row, err := r.queries.GetLeaderboardWeek(ctx, db.GetLeaderboardWeekParams{
		EventID:    eventID,
		WeekNumber: int64(week),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get week %d of event %d: %w", week, eventID, err)
	}
	return &WeekSummary{
		EventID:    row.EventID,
		WeekNumber: int(row.WeekNumber),
		Population: int(row.Population),
		Mean:       row.Mean,
		StdDev:     row.Stddev,
		ClosedAt:   row.ClosedAt,
	}, nil
}

// CloseWeek records the week and every player's weekly rating.
func (r *LeaderboardRepository) CloseWeek(ctx context.Context, summary WeekSummary, results []domain.WeeklyResult) error {
	err := r.queries.InsertLeaderboardWeek(ctx, db.InsertLeaderboardWeekParams{
		EventID:    summary.EventID,
		WeekNumber: int64(summary.WeekNumber),
		Population: int64(summary.Population),
		Mean:       summary.Mean,
		Stddev:     summary.StdDev,
		ClosedAt:   summary.ClosedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to close week %d of event %d: %w", summary.WeekNumber, summary.EventID, err)
	}

	for _, res := range results {
		err := r.queries.InsertWeeklyResult(ctx, db.InsertWeeklyResultParams{
			EventID:    res.EventID,
			WeekNumber: int64(res.WeekNumber),
			PlayerID:   res.PlayerID,
			Score:      res.Score,
			WeeklyElo:  res.WeeklyElo,
			ClosedAt:   res.ClosedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to store weekly result for player %d: %w", res.PlayerID, err)
		}
	}
	return nil
}

func (r *LeaderboardRepository) WeeklyResults(ctx context.Context, eventID int64, week int) ([]domain.WeeklyResult, error) {
	rows, err := r.queries.ListWeeklyResults(ctx, db.ListWeeklyResultsParams{
		EventID:    eventID,
		WeekNumber: int64(week),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list week %d results for event %d: %w", week, eventID, err)
	}
	result := make([]domain.WeeklyResult, len(rows))
	for i, row := range rows {
		result[i] = domain.WeeklyResult{
			EventID:    row.EventID,
			WeekNumber: int(row.WeekNumber),
			PlayerID:   row.PlayerID,
			Score:      row.Score,
			WeeklyElo:  row.WeeklyElo,
			ClosedAt:   row.ClosedAt,
		}
	}
	return result, nil
}

func (r *LeaderboardRepository) ClosedWeeks(ctx context.Context, eventID int64) (int, error) {
	n, err := r.queries.CountLeaderboardWeeks(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to count closed weeks for event %d: %w", eventID, err)
	}
	return int(n), nil
}

// WeeklyEloSums totals each player's weekly ratings over every closed week.
// Players absent from a week simply contribute nothing to their sum.
func (r *LeaderboardRepository) WeeklyEloSums(ctx context.Context, eventID int64) (map[int64]float64, error) {
	rows, err := r.queries.SumWeeklyEloByPlayer(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum weekly ratings for event %d: %w", eventID, err)
	}
	result := make(map[int64]float64, len(rows))
	for _, row := range rows {
		result[row.PlayerID] = row.Total
	}
	return result, nil
}

func toStanding(row db.LeaderboardStanding) domain.LeaderboardStanding {
	return domain.LeaderboardStanding{
		PlayerID:     row.PlayerID,
		EventID:      row.EventID,
		PersonalBest: row.PersonalBest,
		AllTimeElo:   row.AllTimeElo,
		UpdatedAt:    row.UpdatedAt,
	}
}
