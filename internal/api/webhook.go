package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"tournament-arc/internal/config"
	"tournament-arc/internal/constants"
	"tournament-arc/internal/metrics"
)

type AnnouncementKind string

const (
	AnnounceMatchCompleted AnnouncementKind = "match_completed"
	AnnounceMatchUndone    AnnouncementKind = "match_undone"
	AnnounceWeekClosed     AnnouncementKind = "week_closed"
)

// Announcement is the JSON body posted to the configured webhook after a
// rating transaction commits.
type Announcement struct {
	Kind       AnnouncementKind `json:"kind"`
	EventID    int64            `json:"event_id"`
	MatchID    int64            `json:"match_id,omitempty"`
	WeekNumber int              `json:"week_number,omitempty"`
	Changes    []PlayerDelta    `json:"changes,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type PlayerDelta struct {
	PlayerID int64 `json:"player_id"`
	OldElo   int   `json:"old_elo"`
	NewElo   int   `json:"new_elo"`
	Delta    int   `json:"delta"`
}

type WebhookClient struct {
	client *fasthttp.Client
	url    string
	logger zerolog.Logger
}

func NewWebhookClient(cfg *config.Config, logger zerolog.Logger) *WebhookClient {
	return &WebhookClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.WebhookTimeout,
			WriteTimeout:        constants.WebhookTimeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		url:    cfg.WebhookURL,
		logger: logger,
	}
}

func (c *WebhookClient) Enabled() bool {
	return c != nil && c.url != ""
}

// Announce posts a to the webhook. Delivery is best effort: failures are
// logged and counted, never returned, since the rating change has already
// committed.
func (c *WebhookClient) Announce(ctx context.Context, a Announcement) {
	if !c.Enabled() {
		return
	}

	if err := c.post(ctx, a); err != nil {
		metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
		c.logger.Warn().
			Err(err).
			Str("kind", string(a.Kind)).
			Int64("event_id", a.EventID).
			Int64("match_id", a.MatchID).
			Msg("webhook delivery failed")
		return
	}

	metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
	c.logger.Debug().
		Str("kind", string(a.Kind)).
		Int64("event_id", a.EventID).
		Msg("webhook delivered")
}

func (c *WebhookClient) post(ctx context.Context, a Announcement) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.WebhookTimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return err
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("webhook error: %d", code)
	}
	return nil
}
