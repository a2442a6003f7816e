package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"tournament-arc/internal/constants"
	"tournament-arc/internal/domain"
	"tournament-arc/internal/metrics"
)

// TxRunner runs rating mutations in serializable transactions. The sqlite
// DSN takes the write lock at BEGIN, so a conflicting writer surfaces as
// SQLITE_BUSY once the busy timeout lapses; the whole function is then
// retried from scratch.
type TxRunner struct {
	db      *sql.DB
	logger  zerolog.Logger
	backoff func() retry.Backoff
}

func NewTxRunner(sqlDB *sql.DB, logger zerolog.Logger) *TxRunner {
	return &TxRunner{
		db:     sqlDB,
		logger: logger,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(constants.TxRetryBaseDelay)
			b = retry.WithCappedDuration(constants.TxRetryMaxDelay, b)
			return retry.WithMaxRetries(constants.TxMaxRetries, b)
		},
	}
}

// Serializable runs fn in a transaction and commits it. fn may run more than
// once, so it must not have effects outside tx.
func (r *TxRunner) Serializable(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	attempts := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempts++
		err := r.run(ctx, fn)
		if IsConflict(err) {
			metrics.TxRetries.WithLabelValues(name).Inc()
			r.logger.Warn().
				Err(err).
				Str("operation", name).
				Int("attempt", attempts).
				Msg("transaction conflict, retrying")
			return retry.RetryableError(err)
		}
		return err
	})

	if IsConflict(err) {
		metrics.TxConflicts.WithLabelValues(name).Inc()
		r.logger.Error().
			Err(err).
			Str("operation", name).
			Int("attempts", attempts).
			Msg("transaction abandoned after retries")
		return fmt.Errorf("%w: %s gave up after %d attempts: %v", domain.ErrConcurrentModification, name, attempts, err)
	}
	return err
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsConflict reports whether err is sqlite refusing a lock.
func IsConflict(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY clash.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
