package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"tournament-arc/internal/config"
)

func TestAnnouncePostsJSON(t *testing.T) {
	received := make(chan Announcement, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var a Announcement
		if err := json.Unmarshal(body, &a); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received <- a
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewWebhookClient(&config.Config{WebhookURL: srv.URL}, zerolog.Nop())
	want := Announcement{
		Kind:    AnnounceMatchCompleted,
		EventID: 3,
		MatchID: 9,
		Changes: []PlayerDelta{
			{PlayerID: 1, OldElo: 1000, NewElo: 1020, Delta: 20},
			{PlayerID: 2, OldElo: 1000, NewElo: 980, Delta: -20},
		},
		OccurredAt: time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	client.Announce(context.Background(), want)

	select {
	case got := <-received:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("announcement mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestAnnounceSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewWebhookClient(&config.Config{WebhookURL: srv.URL}, zerolog.Nop())
	if err := client.post(context.Background(), Announcement{Kind: AnnounceWeekClosed}); err == nil {
		t.Fatal("post to failing endpoint returned nil error")
	}
	// Announce must not panic or block on the same failure.
	client.Announce(context.Background(), Announcement{Kind: AnnounceWeekClosed})
}

func TestDisabledWebhookIsNoop(t *testing.T) {
	client := NewWebhookClient(&config.Config{}, zerolog.Nop())
	if client.Enabled() {
		t.Fatal("client without URL reports enabled")
	}
	client.Announce(context.Background(), Announcement{Kind: AnnounceMatchUndone})

	var nilClient *WebhookClient
	nilClient.Announce(context.Background(), Announcement{Kind: AnnounceMatchUndone})
}
