package db

import (
	"context"
	"time"
)

const insertLeaderboardSubmission = `
INSERT INTO leaderboard_submissions (id, player_id, event_id, raw_score, submitted_at, week_number)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertLeaderboardSubmissionParams struct {
	ID          string
	PlayerID    int64
	EventID     int64
	RawScore    float64
	SubmittedAt time.Time
	WeekNumber  int64
}

func (q *Queries) InsertLeaderboardSubmission(ctx context.Context, arg InsertLeaderboardSubmissionParams) error {
	_, err := q.db.ExecContext(ctx, insertLeaderboardSubmission,
		arg.ID,
		arg.PlayerID,
		arg.EventID,
		arg.RawScore,
		arg.SubmittedAt,
		arg.WeekNumber,
	)
	return err
}

const getLeaderboardStanding = `
SELECT player_id, event_id, personal_best, all_time_elo, updated_at
FROM leaderboard_standings
WHERE player_id = ? AND event_id = ?
`

type GetLeaderboardStandingParams struct {
	PlayerID int64
	EventID  int64
}

func (q *Queries) GetLeaderboardStanding(ctx context.Context, arg GetLeaderboardStandingParams) (LeaderboardStanding, error) {
	row := q.db.QueryRowContext(ctx, getLeaderboardStanding, arg.PlayerID, arg.EventID)
	var i LeaderboardStanding
	err := row.Scan(
		&i.PlayerID,
		&i.EventID,
		&i.PersonalBest,
		&i.AllTimeElo,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPersonalBest = `
INSERT INTO leaderboard_standings (player_id, event_id, personal_best, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (player_id, event_id) DO UPDATE SET
    personal_best = excluded.personal_best,
    updated_at = excluded.updated_at
`

type UpsertPersonalBestParams struct {
	PlayerID     int64
	EventID      int64
	PersonalBest float64
	UpdatedAt    time.Time
}

func (q *Queries) UpsertPersonalBest(ctx context.Context, arg UpsertPersonalBestParams) error {
	_, err := q.db.ExecContext(ctx, upsertPersonalBest,
		arg.PlayerID,
		arg.EventID,
		arg.PersonalBest,
		arg.UpdatedAt,
	)
	return err
}

const listLeaderboardStandings = `
SELECT player_id, event_id, personal_best, all_time_elo, updated_at
FROM leaderboard_standings
WHERE event_id = ?
ORDER BY player_id
`

func (q *Queries) ListLeaderboardStandings(ctx context.Context, eventID int64) ([]LeaderboardStanding, error) {
	rows, err := q.db.QueryContext(ctx, listLeaderboardStandings, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LeaderboardStanding
	for rows.Next() {
		var i LeaderboardStanding
		if err := rows.Scan(
			&i.PlayerID,
			&i.EventID,
			&i.PersonalBest,
			&i.AllTimeElo,
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

const setAllTimeElo = `
UPDATE leaderboard_standings
SET all_time_elo = ?, updated_at = ?
WHERE player_id = ? AND event_id = ?
`

type SetAllTimeEloParams struct {
	AllTimeElo float64
	UpdatedAt  time.Time
	PlayerID   int64
	EventID    int64
}

func (q *Queries) SetAllTimeElo(ctx context.Context, arg SetAllTimeEloParams) error {
	_, err := q.db.ExecContext(ctx, setAllTimeElo,
		arg.AllTimeElo,
		arg.UpdatedAt,
		arg.PlayerID,
		arg.EventID,
	)
	return err
}

const listWeekHighScores = `
SELECT player_id, MAX(raw_score) AS score
FROM leaderboard_submissions
WHERE event_id = ? AND week_number = ?
GROUP BY player_id
ORDER BY player_id
`

type ListWeekScoresParams struct {
	EventID    int64
	WeekNumber int64
}

type ListWeekScoresRow struct {
	PlayerID int64
	Score    float64
}

func (q *Queries) ListWeekHighScores(ctx context.Context, arg ListWeekScoresParams) ([]ListWeekScoresRow, error) {
	return q.listWeekScores(ctx, listWeekHighScores, arg)
}

const listWeekLowScores = `
SELECT player_id, MIN(raw_score) AS score
FROM leaderboard_submissions
WHERE event_id = ? AND week_number = ?
GROUP BY player_id
ORDER BY player_id
`

func (q *Queries) ListWeekLowScores(ctx context.Context, arg ListWeekScoresParams) ([]ListWeekScoresRow, error) {
	return q.listWeekScores(ctx, listWeekLowScores, arg)
}

func (q *Queries) listWeekScores(ctx context.Context, query string, arg ListWeekScoresParams) ([]ListWeekScoresRow, error) {
	rows, err := q.db.QueryContext(ctx, query, arg.EventID, arg.WeekNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListWeekScoresRow
	for rows.Next() {
		var i ListWeekScoresRow
		if err := rows.Scan(&i.PlayerID, &i.Score); err != nil {
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

const getLeaderboardWeek = `
SELECT event_id, week_number, population, mean, stddev, closed_at
FROM leaderboard_weeks
WHERE event_id = ? AND week_number = ?
`

type GetLeaderboardWeekParams struct {
	EventID    int64
	WeekNumber int64
}

func (q *Queries) GetLeaderboardWeek(ctx context.Context, arg GetLeaderboardWeekParams) (LeaderboardWeek, error) {
	row := q.db.QueryRowContext(ctx, getLeaderboardWeek, arg.EventID, arg.WeekNumber)
	var i LeaderboardWeek
	err := row.Scan(
		&i.EventID,
		&i.WeekNumber,
		&i.Population,
		&i.Mean,
		&i.Stddev,
		&i.ClosedAt,
	)
	return i, err
}

const insertLeaderboardWeek = `
INSERT INTO leaderboard_weeks (event_id, week_number, population, mean, stddev, closed_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertLeaderboardWeekParams struct {
	EventID    int64
	WeekNumber int64
	Population int64
	Mean       float64
	Stddev     float64
	ClosedAt   time.Time
}

func (q *Queries) InsertLeaderboardWeek(ctx context.Context, arg InsertLeaderboardWeekParams) error {
	_, err := q.db.ExecContext(ctx, insertLeaderboardWeek,
		arg.EventID,
		arg.WeekNumber,
		arg.Population,
		arg.Mean,
		arg.Stddev,
		arg.ClosedAt,
	)
	return err
}

const countLeaderboardWeeks = `
SELECT COUNT(*) FROM leaderboard_weeks
WHERE event_id = ?
`

func (q *Queries) CountLeaderboardWeeks(ctx context.Context, eventID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLeaderboardWeeks, eventID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertWeeklyResult = `
INSERT INTO weekly_leaderboard_results (event_id, week_number, player_id, score, weekly_elo, closed_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertWeeklyResultParams struct {
	EventID    int64
	WeekNumber int64
	PlayerID   int64
	Score      float64
	WeeklyElo  float64
	ClosedAt   time.Time
}

func (q *Queries) InsertWeeklyResult(ctx context.Context, arg InsertWeeklyResultParams) error {
	_, err := q.db.ExecContext(ctx, insertWeeklyResult,
		arg.EventID,
		arg.WeekNumber,
		arg.PlayerID,
		arg.Score,
		arg.WeeklyElo,
		arg.ClosedAt,
	)
	return err
}

const listWeeklyResults = `
SELECT event_id, week_number, player_id, score, weekly_elo, closed_at
FROM weekly_leaderboard_results
WHERE event_id = ? AND week_number = ?
ORDER BY player_id
`

type ListWeeklyResultsParams struct {
	EventID    int64
	WeekNumber int64
}

func (q *Queries) ListWeeklyResults(ctx context.Context, arg ListWeeklyResultsParams) ([]WeeklyLeaderboardResult, error) {
	rows, err := q.db.QueryContext(ctx, listWeeklyResults, arg.EventID, arg.WeekNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WeeklyLeaderboardResult
	for rows.Next() {
		var i WeeklyLeaderboardResult
		if err := rows.Scan(
			&i.EventID,
			&i.WeekNumber,
			&i.PlayerID,
			&i.Score,
			&i.WeeklyElo,
			&i.ClosedAt,
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

const sumWeeklyEloByPlayer = `
SELECT player_id, SUM(weekly_elo) AS total
FROM weekly_leaderboard_results
WHERE event_id = ?
GROUP BY player_id
ORDER BY player_id
`

type SumWeeklyEloByPlayerRow struct {
	PlayerID int64
	Total    float64
}

func (q *Queries) SumWeeklyEloByPlayer(ctx context.Context, eventID int64) ([]SumWeeklyEloByPlayerRow, error) {
	rows, err := q.db.QueryContext(ctx, sumWeeklyEloByPlayer, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SumWeeklyEloByPlayerRow
	for rows.Next() {
		var i SumWeeklyEloByPlayerRow
		if err := rows.Scan(&i.PlayerID, &i.Total); err != nil {
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
