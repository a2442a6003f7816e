package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"tournament-arc/internal/api"
	"tournament-arc/internal/config"
	"tournament-arc/internal/domain"
)

func TestUndoInverseDelta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.cluster(t, "fighting")
	ev := e.event(t, c.ID, "tekken", "", domain.FormatOneVOne)
	e.register(t, 1, 2)

	// Some history first so the restored state is not just the defaults.
	e.duel(t, ev.ID, 2, 1)
	before := e.states(t, ev.ID)

	res := e.duel(t, ev.ID, 1, 2)
	if after := e.states(t, ev.ID); cmp.Equal(before, after) {
		t.Fatal("match did not change ratings")
	}

	undo, err := e.undo.UndoMatch(ctx, res.MatchID, 42, "wrong winner reported")
	if err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}
	if undo.Path != domain.UndoInverseDelta {
		t.Errorf("path = %s, want %s", undo.Path, domain.UndoInverseDelta)
	}
	if undo.AffectedPlayers != 2 || undo.ReplayedMatches != 0 {
		t.Errorf("affected = %d replayed = %d, want 2 and 0", undo.AffectedPlayers, undo.ReplayedMatches)
	}

	if diff := cmp.Diff(before, e.states(t, ev.ID)); diff != "" {
		t.Errorf("undo is not a perfect inverse (-before +after):\n%s", diff)
	}

	history, err := e.changes.ListByMatch(ctx, res.MatchID)
	if err != nil {
		t.Fatalf("ListByMatch: %v", err)
	}
	deltas := make(map[domain.ChangeKind]map[int64]int)
	for _, h := range history {
		if deltas[h.Kind] == nil {
			deltas[h.Kind] = make(map[int64]int)
		}
		deltas[h.Kind][h.PlayerID] = h.Delta
		if h.IsUndo() && h.KFactor != 0 {
			t.Errorf("undo record has k-factor %d", h.KFactor)
		}
	}
	for _, p := range res.Participants {
		if got := deltas[domain.ChangeUndo][p.PlayerID]; got != -p.EloChange {
			t.Errorf("player %d undo delta = %d, want %d", p.PlayerID, got, -p.EloChange)
		}
	}

	m, _, err := e.match.GetMatch(ctx, res.MatchID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if m.Status != domain.MatchCancelled {
		t.Errorf("status = %s, want cancelled", m.Status)
	}

	audits, err := e.audits.ListByMatch(ctx, res.MatchID)
	if err != nil {
		t.Fatalf("ListByMatch audits: %v", err)
	}
	if len(audits) != 1 || audits[0].ActorID != 42 || audits[0].Path != domain.UndoInverseDelta {
		t.Errorf("audits = %+v", audits)
	}

	if _, err := e.undo.UndoMatch(ctx, res.MatchID, 42, "again"); !errors.Is(err, domain.ErrAlreadyUndone) {
		t.Fatalf("second undo err = %v, want ErrAlreadyUndone", err)
	}
}

func TestUndoScenarioFreshPlayers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.cluster(t, "fighting")
	ev := e.event(t, c.ID, "tekken", "", domain.FormatOneVOne)
	e.register(t, 1, 2)

	res := e.duel(t, ev.ID, 1, 2)
	if got := e.rating(t, 1, ev.ID).Elo.Raw(); got != 1020 {
		t.Fatalf("winner = %d, want 1020", got)
	}

	if _, err := e.undo.UndoMatch(ctx, res.MatchID, 1, "test"); err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}
	want := map[int64]ratingState{
		1: {Elo: 1000, Scoring: 1000},
		2: {Elo: 1000, Scoring: 1000},
	}
	if diff := cmp.Diff(want, e.states(t, ev.ID)); diff != "" {
		t.Errorf("ratings mismatch (-want +got):\n%s", diff)
	}

	if _, err := e.undo.UndoMatch(ctx, res.MatchID, 1, "test"); !errors.Is(err, domain.ErrAlreadyUndone) {
		t.Fatalf("second undo err = %v, want ErrAlreadyUndone", err)
	}
}

func TestUndoRecalculationMatchesNeverPlayed(t *testing.T) {
	ffa := func(ids ...int64) []Entrant {
		out := make([]Entrant, len(ids))
		for i, id := range ids {
			out[i] = Entrant{PlayerID: id}
		}
		return out
	}

	// setup builds an identical catalog in a fresh database.
	setup := func(t *testing.T) (*env, domain.Event) {
		e := newEnv(t)
		c := e.cluster(t, "arena")
		ev := e.event(t, c.ID, "brawl", "", domain.FormatOneVOne, domain.FormatFreeForAll)
		e.register(t, 1, 2, 3, 4, 5, 6)
		return e, ev
	}

	// history plays everything after the match that gets undone.
	history := func(t *testing.T, e *env, eventID int64) {
		e.duel(t, eventID, 2, 3)
		e.duel(t, eventID, 5, 6)
		e.play(t, eventID, domain.FormatFreeForAll, ffa(3, 1, 4), nil)
		e.duel(t, eventID, 4, 2)
		e.duel(t, eventID, 6, 5)
	}

	undone, ev := setup(t)
	target := undone.duel(t, ev.ID, 1, 2)
	history(t, undone, ev.ID)

	res, err := undone.undo.UndoMatch(context.Background(), target.MatchID, 9, "disputed")
	if err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}
	if res.Path != domain.UndoRecalculation {
		t.Errorf("path = %s, want %s", res.Path, domain.UndoRecalculation)
	}
	// 5 and 6 never meet anyone the undo touched.
	if res.ReplayedMatches != 3 {
		t.Errorf("replayed = %d, want 3", res.ReplayedMatches)
	}
	if res.AffectedPlayers != 4 {
		t.Errorf("affected = %d, want 4", res.AffectedPlayers)
	}

	clean, cleanEvent := setup(t)
	history(t, clean, cleanEvent.ID)

	if diff := cmp.Diff(clean.states(t, cleanEvent.ID), undone.states(t, ev.ID)); diff != "" {
		t.Errorf("recalculation differs from never playing the match (-never +undone):\n%s", diff)
	}

	// A replayed match carries snapshots as if the undone match never happened.
	later, err := undone.matches.CompletedAfter(context.Background(), domain.Match{
		ID:          target.MatchID,
		EventID:     ev.ID,
		CompletedAt: &target.CompletedAt,
	})
	if err != nil {
		t.Fatalf("CompletedAfter: %v", err)
	}
	first, err := undone.matches.Participants(context.Background(), later[0].ID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	for _, p := range first {
		if p.EloBefore != 1000 {
			t.Errorf("player %d elo_before = %d after replay, want 1000", p.PlayerID, p.EloBefore)
		}
	}
}

func TestUndoRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.cluster(t, "fighting")
	ev := e.event(t, c.ID, "tekken", "", domain.FormatOneVOne)
	e.register(t, 1, 2)

	if _, err := e.undo.UndoMatch(ctx, 404, 1, "missing"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Errorf("missing match err = %v, want ErrMatchNotFound", err)
	}

	m, _, err := e.match.CreateMatch(ctx, ev.ID, domain.FormatOneVOne, []Entrant{{PlayerID: 1}, {PlayerID: 2}})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if _, err := e.undo.UndoMatch(ctx, m.ID, 1, "too early"); !errors.Is(err, domain.ErrNotCompleted) {
		t.Errorf("active match err = %v, want ErrNotCompleted", err)
	}

	audits, err := e.audits.ListByMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListByMatch: %v", err)
	}
	if len(audits) != 0 {
		t.Errorf("rejected undo left %d audit rows", len(audits))
	}
}

func TestUndoHistoryChains(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.cluster(t, "fighting")
	ev := e.event(t, c.ID, "tekken", "", domain.FormatOneVOne)
	e.register(t, 1, 2, 3)

	target := e.duel(t, ev.ID, 1, 2)
	e.duel(t, ev.ID, 1, 3)
	e.duel(t, ev.ID, 3, 2)

	if _, err := e.undo.UndoMatch(ctx, target.MatchID, 1, "chain"); err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}

	for _, id := range []int64{1, 2, 3} {
		history, err := e.players.RatingHistory(ctx, id, ev.ID)
		if err != nil {
			t.Fatalf("RatingHistory(%d): %v", id, err)
		}
		elo := 1000
		for i, h := range history {
			if h.OldElo != elo {
				t.Errorf("player %d record %d starts at %d, want %d", id, i, h.OldElo, elo)
			}
			if h.NewElo-h.OldElo != h.Delta {
				t.Errorf("player %d record %d delta %d does not match %d -> %d", id, i, h.Delta, h.OldElo, h.NewElo)
			}
			elo = h.NewElo
		}
		if got := e.rating(t, id, ev.ID).Elo.Raw(); got != elo {
			t.Errorf("player %d rating %d, history ends at %d", id, got, elo)
		}
	}
}

func TestUndoAnnouncesDeltas(t *testing.T) {
	received := make(chan api.Announcement, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a api.Announcement
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if a.Kind == api.AnnounceMatchUndone {
			received <- a
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	e := newEnv(t)
	c := e.cluster(t, "fighting")
	ev := e.event(t, c.ID, "tekken", "", domain.FormatOneVOne)
	e.register(t, 1, 2)
	e.duel(t, ev.ID, 2, 1)
	res := e.duel(t, ev.ID, 1, 2)

	e.undo.webhook = api.NewWebhookClient(&config.Config{WebhookURL: hook.URL}, zerolog.Nop())
	undo, err := e.undo.UndoMatch(context.Background(), res.MatchID, 42, "wrong winner reported")
	if err != nil {
		t.Fatalf("UndoMatch: %v", err)
	}

	want := make(map[int64]api.PlayerDelta)
	wantBefore := make(map[int64]int)
	for _, p := range res.Participants {
		old := p.EloBefore + p.EloChange
		want[p.PlayerID] = api.PlayerDelta{PlayerID: p.PlayerID, OldElo: old, NewElo: p.EloBefore, Delta: -p.EloChange}
		wantBefore[p.PlayerID] = old
	}
	if diff := cmp.Diff(wantBefore, undo.EloBefore); diff != "" {
		t.Errorf("elo before undo mismatch (-want +got):\n%s", diff)
	}

	select {
	case a := <-received:
		got := make(map[int64]api.PlayerDelta)
		for _, d := range a.Changes {
			got[d.PlayerID] = d
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("announced changes mismatch (-want +got):\n%s", diff)
		}
		if a.MatchID != res.MatchID || a.EventID != ev.ID {
			t.Errorf("announcement = %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}
