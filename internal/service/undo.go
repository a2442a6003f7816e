package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tournament-arc/internal/api"
	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/metrics"
	"tournament-arc/internal/rating"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
)

type UndoResult struct {
	MatchID         int64
	EventID         int64
	AuditID         string
	Path            domain.UndoPath
	AffectedPlayers int
	ReplayedMatches int
	Ratings         []domain.PlayerEventRating
	// EloBefore holds each affected player's raw Elo as it stood before the undo.
	EloBefore map[int64]int
}

// UndoService reverses completed matches. A match whose participants have
// played nothing since is reverted from its stored snapshots; otherwise every
// later match touching an affected player is replayed in completion order.
type UndoService struct {
	tx         *repository.TxRunner
	matchRepo  *repository.MatchRepository
	ratingRepo *repository.RatingRepository
	changeRepo *repository.RatingChangeRepository
	auditRepo  *repository.UndoAuditRepository
	registry   *scoring.Registry
	webhook    *api.WebhookClient
	logger     zerolog.Logger
	now        func() time.Time
}

func NewUndoService(
	tx *repository.TxRunner,
	matchRepo *repository.MatchRepository,
	ratingRepo *repository.RatingRepository,
	changeRepo *repository.RatingChangeRepository,
	auditRepo *repository.UndoAuditRepository,
	registry *scoring.Registry,
	webhook *api.WebhookClient,
	logger zerolog.Logger,
) *UndoService {
	return &UndoService{
		tx:         tx,
		matchRepo:  matchRepo,
		ratingRepo: ratingRepo,
		changeRepo: changeRepo,
		auditRepo:  auditRepo,
		registry:   registry,
		webhook:    webhook,
		logger:     logger,
		now:        utcNow,
	}
}

type laterMatch struct {
	match  domain.Match
	roster []domain.MatchParticipant
}

func (lm laterMatch) find(playerID int64) (domain.MatchParticipant, bool) {
	return findParticipant(lm.roster, playerID)
}

// undoRun holds the transaction-bound state of one undo attempt.
type undoRun struct {
	matches *repository.MatchRepository
	ratings *repository.RatingRepository
	changes *repository.RatingChangeRepository

	target domain.Match
	roster []domain.MatchParticipant
	later  []laterMatch
	states map[int64]*domain.PlayerEventRating
	before map[int64]rating.Rating
	order  []int64
	now    time.Time
}

func (s *UndoService) UndoMatch(ctx context.Context, matchID, actorID int64, reason string) (UndoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	start := time.Now()
	var result UndoResult
	err := s.tx.Serializable(ctx, "undo_match", func(tx *sql.Tx) error {
		var err error
		result, err = s.undo(ctx, tx, matchID, actorID, reason)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("match_id", matchID).Int64("actor_id", actorID).Msg("failed to undo match")
		return UndoResult{}, err
	}

	metrics.MatchesUndone.WithLabelValues(string(result.Path)).Inc()
	metrics.MatchesReplayed.Add(float64(result.ReplayedMatches))
	metrics.UndoDuration.WithLabelValues(string(result.Path)).Observe(time.Since(start).Seconds())

	s.logger.Info().
		Int64("match_id", matchID).
		Int64("actor_id", actorID).
		Str("path", string(result.Path)).
		Int("affected_players", result.AffectedPlayers).
		Int("replayed_matches", result.ReplayedMatches).
		Msg("match undone")

	deltas := make([]api.PlayerDelta, len(result.Ratings))
	for i, r := range result.Ratings {
		old := result.EloBefore[r.PlayerID]
		deltas[i] = api.PlayerDelta{PlayerID: r.PlayerID, OldElo: old, NewElo: r.Elo.Raw(), Delta: r.Elo.Raw() - old}
	}
	s.webhook.Announce(ctx, api.Announcement{
		Kind:       api.AnnounceMatchUndone,
		EventID:    result.EventID,
		MatchID:    matchID,
		Changes:    deltas,
		OccurredAt: s.now(),
	})
	return result, nil
}

func (s *UndoService) undo(ctx context.Context, tx *sql.Tx, matchID, actorID int64, reason string) (UndoResult, error) {
	run := &undoRun{
		matches: s.matchRepo.WithTx(tx),
		ratings: s.ratingRepo.WithTx(tx),
		changes: s.changeRepo.WithTx(tx),
		states:  make(map[int64]*domain.PlayerEventRating),
		before:  make(map[int64]rating.Rating),
		now:     s.now(),
	}

	target, err := run.matches.Get(ctx, matchID)
	if err != nil {
		return UndoResult{}, err
	}
	switch target.Status {
	case domain.MatchCompleted:
	case domain.MatchCancelled:
		return UndoResult{}, fmt.Errorf("%w: %d", domain.ErrAlreadyUndone, matchID)
	default:
		return UndoResult{}, fmt.Errorf("%w: match %d is %s", domain.ErrNotCompleted, matchID, target.Status)
	}
	run.target = target

	if run.roster, err = run.matches.Participants(ctx, matchID); err != nil {
		return UndoResult{}, err
	}
	if err := run.loadLater(ctx); err != nil {
		return UndoResult{}, err
	}

	path := domain.UndoInverseDelta
	if run.touchesLater() {
		path = domain.UndoRecalculation
	}

	for _, p := range run.roster {
		if err := run.enter(ctx, p.PlayerID, p.EloBefore, -1); err != nil {
			return UndoResult{}, err
		}
	}

	replayed := 0
	if path == domain.UndoRecalculation {
		if replayed, err = s.replay(ctx, run); err != nil {
			return UndoResult{}, err
		}
	}

	if err := run.flush(ctx); err != nil {
		return UndoResult{}, err
	}
	if err := run.matches.Cancel(ctx, matchID, run.now); err != nil {
		return UndoResult{}, err
	}

	audit, err := s.auditRepo.WithTx(tx).Record(ctx, domain.UndoAudit{
		MatchID:         matchID,
		ActorID:         actorID,
		Reason:          reason,
		Path:            path,
		AffectedPlayers: len(run.order),
		ReplayedMatches: replayed,
		CreatedAt:       run.now,
	})
	if err != nil {
		return UndoResult{}, err
	}

	result := UndoResult{
		MatchID:         matchID,
		EventID:         target.EventID,
		AuditID:         audit.ID,
		Path:            path,
		AffectedPlayers: len(run.order),
		ReplayedMatches: replayed,
		Ratings:         make([]domain.PlayerEventRating, len(run.order)),
		EloBefore:       make(map[int64]int, len(run.order)),
	}
	for i, id := range run.order {
		result.Ratings[i] = *run.states[id]
		result.EloBefore[id] = run.before[id].Raw()
	}
	return result, nil
}

// replay rescores, in completion order, every later match that involves a
// player whose rating the undo has changed.
func (s *UndoService) replay(ctx context.Context, run *undoRun) (int, error) {
	sc := scorer{matches: run.matches, changes: run.changes}
	replayed := 0
	for i, lm := range run.later {
		if !run.affects(lm) {
			continue
		}
		for _, p := range lm.roster {
			if _, ok := run.states[p.PlayerID]; ok {
				continue
			}
			if err := run.enter(ctx, p.PlayerID, p.EloBefore, i); err != nil {
				return 0, err
			}
		}

		strategy, err := s.registry.For(lm.match.Format)
		if err != nil {
			return 0, err
		}
		if _, err := sc.score(ctx, strategy, lm.match, lm.roster, run.states, domain.ChangeReplay, run.now); err != nil {
			return 0, fmt.Errorf("failed to replay match %d: %w", lm.match.ID, err)
		}
		replayed++

		s.logger.Debug().
			Int64("undone_match_id", run.target.ID).
			Int64("replayed_match_id", lm.match.ID).
			Msg("match replayed")
	}
	return replayed, nil
}

func (run *undoRun) loadLater(ctx context.Context) error {
	later, err := run.matches.CompletedAfter(ctx, run.target)
	if err != nil {
		return err
	}
	run.later = make([]laterMatch, len(later))
	for i, m := range later {
		roster, err := run.matches.Participants(ctx, m.ID)
		if err != nil {
			return err
		}
		run.later[i] = laterMatch{match: m, roster: roster}
	}
	return nil
}

func (run *undoRun) touchesLater() bool {
	for _, p := range run.roster {
		for _, lm := range run.later {
			if _, ok := lm.find(p.PlayerID); ok {
				return true
			}
		}
	}
	return false
}

func (run *undoRun) affects(lm laterMatch) bool {
	for _, p := range lm.roster {
		if _, ok := run.states[p.PlayerID]; ok {
			return true
		}
	}
	return false
}

// enter rolls a player back to the snapshot taken before the match they
// first become affected at. from is the index into later of that match, or
// -1 for the undone match itself. Counters are rewound over that match and
// every later match of theirs, all of which are either cancelled or replayed.
func (run *undoRun) enter(ctx context.Context, playerID int64, eloBefore int, from int) error {
	pr, err := run.ratings.Get(ctx, playerID, run.target.EventID)
	if err != nil {
		return err
	}
	current := pr.Elo

	start := from
	if from < 0 {
		p, _ := findParticipant(run.roster, playerID)
		pr.Revert(p.Result)
		start = 0
	}
	for _, lm := range run.later[start:] {
		if p, ok := lm.find(playerID); ok {
			pr.Revert(p.Result)
		}
	}
	pr.Elo = rating.Rating(eloBefore)

	run.states[playerID] = &pr
	run.before[playerID] = current
	run.order = append(run.order, playerID)

	if from >= 0 && current == pr.Elo {
		return nil
	}
	// The rollback is appended before any replay of this player so their
	// history still chains old to new.
	matchID := run.target.ID
	return run.changes.Append(ctx, domain.RatingChange{
		PlayerID:   playerID,
		EventID:    run.target.EventID,
		MatchID:    &matchID,
		OldElo:     current.Raw(),
		NewElo:     pr.Elo.Raw(),
		Delta:      pr.Elo.Raw() - current.Raw(),
		KFactor:    0,
		Kind:       domain.ChangeUndo,
		RecordedAt: run.now,
	})
}

// flush writes every affected player's final rating.
func (run *undoRun) flush(ctx context.Context) error {
	for _, id := range run.order {
		if err := run.ratings.Save(ctx, *run.states[id], run.now); err != nil {
			return err
		}
	}
	return nil
}

func findParticipant(roster []domain.MatchParticipant, playerID int64) (domain.MatchParticipant, bool) {
	for _, p := range roster {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return domain.MatchParticipant{}, false
}
