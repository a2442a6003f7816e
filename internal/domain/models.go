package domain

import (
	"slices"
	"strings"
	"time"

	"tournament-arc/internal/rating"
)

type Format string

const (
	FormatOneVOne     Format = "1v1"
	FormatFreeForAll  Format = "ffa"
	FormatTeam        Format = "team"
	FormatLeaderboard Format = "leaderboard"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatOneVOne, FormatFreeForAll, FormatTeam, FormatLeaderboard:
		return f, nil
	}
	return "", ErrUnknownScoringFormat
}

type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

type ScoreDirection string

const (
	HigherIsBetter ScoreDirection = "higher"
	LowerIsBetter  ScoreDirection = "lower"
)

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// ChangeKind tags a rating change record. ChangeUndo marks the inverse
// entries written when a match is reversed.
type ChangeKind string

const (
	ChangeMatch       ChangeKind = "match"
	ChangeUndo        ChangeKind = "undo"
	ChangeReplay      ChangeKind = "replay"
	ChangeLeaderboard ChangeKind = "leaderboard"
)

type UndoPath string

const (
	UndoInverseDelta  UndoPath = "inverse_delta"
	UndoRecalculation UndoPath = "recalculation"
)

type Cluster struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Event struct {
	ID        int64
	ClusterID int64
	Name      string
	Formats   []Format
	Direction ScoreDirection // only set for leaderboard events
	CreatedAt time.Time
}

func (e Event) Supports(f Format) bool {
	return slices.Contains(e.Formats, f)
}

type Player struct {
	ID          int64
	DisplayName string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PlayerEventRating struct {
	PlayerID      int64
	EventID       int64
	Elo           rating.Rating
	MatchesPlayed int
	Wins          int
	Losses        int
	Draws         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Apply adds one match result to the counters.
func (r *PlayerEventRating) Apply(res Result) {
	r.MatchesPlayed++
	r.count(res, 1)
}

// Revert removes one match result from the counters.
func (r *PlayerEventRating) Revert(res Result) {
	r.MatchesPlayed--
	r.count(res, -1)
}

func (r *PlayerEventRating) count(res Result, n int) {
	switch res {
	case ResultWin:
		r.Wins += n
	case ResultLoss:
		r.Losses += n
	case ResultDraw:
		r.Draws += n
	}
}

type Match struct {
	ID          int64
	EventID     int64
	Format      Format
	Status      MatchStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type MatchParticipant struct {
	MatchID   int64
	PlayerID  int64
	Team      int // 0 when the format has no teams
	Placement int // 0 until the result is reported
	Result    Result
	EloBefore int
	EloAfter  int
	EloChange int
}

type RatingChange struct {
	ID         string
	PlayerID   int64
	EventID    int64
	MatchID    *int64
	OldElo     int
	NewElo     int
	Delta      int
	KFactor    int
	Kind       ChangeKind
	RecordedAt time.Time
}

func (c RatingChange) IsUndo() bool { return c.Kind == ChangeUndo }

type LeaderboardSubmission struct {
	ID          string
	PlayerID    int64
	EventID     int64
	RawScore    float64
	SubmittedAt time.Time
	WeekNumber  int
}

type LeaderboardStanding struct {
	PlayerID     int64
	EventID      int64
	PersonalBest float64
	AllTimeElo   *float64 // nil until the population is large enough
	UpdatedAt    time.Time
}

type WeeklyResult struct {
	EventID    int64
	WeekNumber int
	PlayerID   int64
	Score      float64
	WeeklyElo  float64
	ClosedAt   time.Time
}

type UndoAudit struct {
	ID              string
	MatchID         int64
	ActorID         int64
	Reason          string
	Path            UndoPath
	AffectedPlayers int
	ReplayedMatches int
	CreatedAt       time.Time
}

// WeekNumber buckets t into year*100 + ISO week, in UTC.
func WeekNumber(t time.Time) int {
	year, week := t.UTC().ISOWeek()
	return year*100 + week
}
