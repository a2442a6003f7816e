package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/api"
	"tournament-arc/internal/config"
	"tournament-arc/internal/database"
	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
)

// clock hands out strictly increasing times so completion order is
// deterministic.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	clock *clock

	ratings *repository.RatingRepository
	changes *repository.RatingChangeRepository
	matches *repository.MatchRepository
	board   *repository.LeaderboardRepository
	audits  *repository.UndoAuditRepository

	catalog     *CatalogService
	players     *PlayerService
	match       *MatchService
	undo        *UndoService
	leaderboard *LeaderboardService
	snapshot    *SnapshotService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "arena.db")}
	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	params := rating.DefaultParams()
	registry := scoring.NewRegistry(params)
	webhook := api.NewWebhookClient(cfg, logger)
	tx := repository.NewTxRunner(sqlDB, logger)

	catalogRepo := repository.NewCatalogRepository(sqlDB, queries, logger)
	playerRepo := repository.NewPlayerRepository(sqlDB, queries, logger)
	matchRepo := repository.NewMatchRepository(sqlDB, queries, logger)
	ratingRepo := repository.NewRatingRepository(sqlDB, queries, logger)
	changeRepo := repository.NewRatingChangeRepository(sqlDB, queries, logger)
	boardRepo := repository.NewLeaderboardRepository(sqlDB, queries, logger)
	auditRepo := repository.NewUndoAuditRepository(sqlDB, queries, logger)

	e := &env{
		clock:   &clock{now: time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)},
		ratings: ratingRepo,
		changes: changeRepo,
		matches: matchRepo,
		board:   boardRepo,
		audits:  auditRepo,

		catalog:     NewCatalogService(catalogRepo, logger),
		players:     NewPlayerService(playerRepo, matchRepo, changeRepo, logger),
		match:       NewMatchService(tx, catalogRepo, playerRepo, matchRepo, ratingRepo, changeRepo, registry, webhook, logger),
		undo:        NewUndoService(tx, matchRepo, ratingRepo, changeRepo, auditRepo, registry, webhook, logger),
		leaderboard: NewLeaderboardService(tx, catalogRepo, playerRepo, boardRepo, ratingRepo, changeRepo, registry, params, webhook, logger),
		snapshot:    NewSnapshotService(playerRepo, ratingRepo, catalogRepo, params, logger),
	}
	e.catalog.now = e.clock.Now
	e.players.now = e.clock.Now
	e.match.now = e.clock.Now
	e.undo.now = e.clock.Now
	e.leaderboard.now = e.clock.Now
	return e
}

func (e *env) cluster(t *testing.T, name string) domain.Cluster {
	t.Helper()
	c, err := e.catalog.CreateCluster(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateCluster(%q): %v", name, err)
	}
	return c
}

func (e *env) event(t *testing.T, clusterID int64, name string, dir domain.ScoreDirection, formats ...domain.Format) domain.Event {
	t.Helper()
	ev, err := e.catalog.CreateEvent(context.Background(), domain.Event{
		ClusterID: clusterID,
		Name:      name,
		Formats:   formats,
		Direction: dir,
	})
	if err != nil {
		t.Fatalf("CreateEvent(%q): %v", name, err)
	}
	return ev
}

func (e *env) register(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		if _, err := e.players.Register(context.Background(), id, "player"); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
	}
}

// play creates and reports a match in one go. Placements follow the order of
// ids unless given explicitly.
func (e *env) play(t *testing.T, eventID int64, format domain.Format, entrants []Entrant, placements []Placement) MatchCompletionResult {
	t.Helper()
	ctx := context.Background()

	m, _, err := e.match.CreateMatch(ctx, eventID, format, entrants)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if placements == nil {
		for i, en := range entrants {
			placements = append(placements, Placement{PlayerID: en.PlayerID, Placement: i + 1})
		}
	}
	res, err := e.match.ReportMatchResult(ctx, m.ID, placements)
	if err != nil {
		t.Fatalf("ReportMatchResult(%d): %v", m.ID, err)
	}
	return res
}

// duel plays a 1v1 won by winner.
func (e *env) duel(t *testing.T, eventID, winner, loser int64) MatchCompletionResult {
	t.Helper()
	return e.play(t, eventID, domain.FormatOneVOne, []Entrant{{PlayerID: winner}, {PlayerID: loser}}, nil)
}

func (e *env) rating(t *testing.T, playerID, eventID int64) domain.PlayerEventRating {
	t.Helper()
	pr, err := e.ratings.Get(context.Background(), playerID, eventID)
	if err != nil {
		t.Fatalf("rating(%d, %d): %v", playerID, eventID, err)
	}
	return pr
}

// ratingState is the part of a rating that undo and replay must restore.
type ratingState struct {
	Elo           int
	Scoring       int
	MatchesPlayed int
	Wins          int
	Losses        int
	Draws         int
}

func stateOf(pr domain.PlayerEventRating) ratingState {
	return ratingState{
		Elo:           pr.Elo.Raw(),
		Scoring:       pr.Elo.Scoring(),
		MatchesPlayed: pr.MatchesPlayed,
		Wins:          pr.Wins,
		Losses:        pr.Losses,
		Draws:         pr.Draws,
	}
}

func (e *env) states(t *testing.T, eventID int64) map[int64]ratingState {
	t.Helper()
	list, err := e.ratings.ListByEvent(context.Background(), eventID)
	if err != nil {
		t.Fatalf("ListByEvent(%d): %v", eventID, err)
	}
	out := make(map[int64]ratingState, len(list))
	for _, pr := range list {
		out[pr.PlayerID] = stateOf(pr)
	}
	return out
}
