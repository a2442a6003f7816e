package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_matches_completed_total",
		Help: "Total number of matches scored, by format",
	}, []string{"format"})

	MatchesUndone = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_matches_undone_total",
		Help: "Total number of matches reversed, by undo path",
	}, []string{"path"})

	MatchesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_replayed_total",
		Help: "Total number of later matches rescored by recalculation undos",
	})

	UndoDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_undo_duration_seconds",
		Help:    "Duration of undo transactions, by undo path",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	LeaderboardSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_leaderboard_submissions_total",
		Help: "Total number of leaderboard scores submitted",
	}, []string{"personal_best"})

	NormalizationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_leaderboard_normalizations_total",
		Help: "Total number of Z-score passes, by pass and outcome",
	}, []string{"pass", "outcome"})

	TxRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_tx_retries_total",
		Help: "Total number of serializable transactions retried after a conflict",
	}, []string{"operation"})

	TxConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_tx_conflicts_total",
		Help: "Total number of transactions abandoned after exhausting retries",
	}, []string{"operation"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_webhook_deliveries_total",
		Help: "Total number of outbound announcements, by outcome",
	}, []string{"outcome"})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_rpc_requests_total",
		Help: "Total number of RPC requests, by procedure and status code",
	}, []string{"procedure", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_rpc_duration_seconds",
		Help:    "RPC handling latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"procedure"})
)
