package constants

import "time"

const (
	WebhookTimeout   = 5 * time.Second
	MigrationTimeout = 30 * time.Second
	RequestTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 16
	DBMaxIdleConns    = 4
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

// Serializable transactions that hit a busy or locked database are retried
// with exponential backoff starting at TxRetryBaseDelay.
const (
	TxMaxRetries     = 7
	TxRetryBaseDelay = 75 * time.Millisecond
	TxRetryMaxDelay  = 2 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	StandingsDefaultLimit = 50
	StandingsMaxLimit     = 500
	HistoryDefaultLimit   = 20
)
