package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"tournament-arc/internal/config"
	"tournament-arc/internal/database"
	"tournament-arc/internal/db"
	"tournament-arc/internal/domain"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "arena.db")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func quickRunner(sqlDB *sql.DB, retries uint64) *TxRunner {
	r := NewTxRunner(sqlDB, zerolog.Nop())
	r.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(retries, retry.NewConstant(time.Millisecond))
	}
	return r
}

func TestSerializableGivesUpOnConflict(t *testing.T) {
	r := quickRunner(openDB(t), 2)

	calls := 0
	err := r.Serializable(context.Background(), "test", func(*sql.Tx) error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}
	if calls != 3 {
		t.Errorf("fn ran %d times, want 3", calls)
	}
}

func TestSerializableRetriesThenCommits(t *testing.T) {
	sqlDB := openDB(t)
	r := quickRunner(sqlDB, 3)
	players := NewPlayerRepository(sqlDB, db.New(sqlDB), zerolog.Nop())

	calls := 0
	err := r.Serializable(context.Background(), "test", func(tx *sql.Tx) error {
		calls++
		if calls == 1 {
			return sqlite3.Error{Code: sqlite3.ErrLocked}
		}
		_, err := players.WithTx(tx).Upsert(context.Background(), 1, "ada", time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("Serializable: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn ran %d times, want 2", calls)
	}
	if _, err := players.Get(context.Background(), 1); err != nil {
		t.Errorf("committed player missing: %v", err)
	}
}

func TestSerializableDoesNotRetryOtherErrors(t *testing.T) {
	r := quickRunner(openDB(t), 3)
	boom := errors.New("boom")

	calls := 0
	err := r.Serializable(context.Background(), "test", func(*sql.Tx) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("err = %v after %d calls, want boom after 1", err, calls)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	sqlDB := openDB(t)
	catalog := NewCatalogRepository(sqlDB, db.New(sqlDB), zerolog.Nop())
	ctx := context.Background()

	if _, err := catalog.CreateCluster(ctx, "racing", time.Now().UTC()); err != nil {
		t.Fatalf("CreateCluster: %v", err)
	}
	_, err := catalog.CreateCluster(ctx, "racing", time.Now().UTC())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate err = %v, want ErrAlreadyExists", err)
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain error reported as unique violation")
	}
}
