package db

import (
	"time"
)

type Cluster struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Event struct {
	ID             int64
	ClusterID      int64
	Name           string
	Formats        string
	ScoreDirection *string
	CreatedAt      time.Time
}

type LeaderboardStanding struct {
	PlayerID     int64
	EventID      int64
	PersonalBest float64
	AllTimeElo   *float64
	UpdatedAt    time.Time
}

type LeaderboardSubmission struct {
	ID          string
	PlayerID    int64
	EventID     int64
	RawScore    float64
	SubmittedAt time.Time
	WeekNumber  int64
}

type LeaderboardWeek struct {
	EventID    int64
	WeekNumber int64
	Population int64
	Mean       float64
	Stddev     float64
	ClosedAt   time.Time
}

type Match struct {
	ID          int64
	EventID     int64
	Format      string
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type MatchParticipant struct {
	MatchID   int64
	PlayerID  int64
	Team      *int64
	Placement *int64
	Result    *string
	EloBefore *int64
	EloAfter  *int64
	EloChange *int64
}

type Player struct {
	ID          int64
	DisplayName string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PlayerEventRating struct {
	PlayerID      int64
	EventID       int64
	RawElo        int64
	ScoringElo    int64
	MatchesPlayed int64
	Wins          int64
	Losses        int64
	Draws         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type RatingChange struct {
	ID         string
	PlayerID   int64
	EventID    int64
	MatchID    *int64
	OldElo     int64
	NewElo     int64
	Delta      int64
	KFactor    int64
	Kind       string
	RecordedAt time.Time
}

type UndoAudit struct {
	ID              string
	MatchID         int64
	ActorID         int64
	Reason          string
	Path            string
	AffectedPlayers int64
	ReplayedMatches int64
	CreatedAt       time.Time
}

type WeeklyLeaderboardResult struct {
	EventID    int64
	WeekNumber int64
	PlayerID   int64
	Score      float64
	WeeklyElo  float64
	ClosedAt   time.Time
}
