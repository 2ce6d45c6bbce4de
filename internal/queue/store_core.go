package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelgen/internal/config"
	"reelgen/internal/retry"
)

// Store is the SQLite-backed task index. The task documents stay the source
// of truth; the index only serves listing and filtering.
type Store struct {
	db      *sql.DB
	path    string
	rebuilt bool
}

const sqliteBusyCode = 5

// busyPolicy retries statements that lost a race for the write lock.
var busyPolicy = retry.Policy{
	MaxAttempts: 5,
	Delay:       10 * time.Millisecond,
	MaxDelay:    200 * time.Millisecond,
	Exponential: true,
	Retryable:   isSQLiteBusy,
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	result := busyPolicy.Run(ctx, func(ctx context.Context, _ int) error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	if result.Err != nil {
		return nil, result.Err
	}
	return res, nil
}

// Open initializes or connects to the index database under the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.IndexPath())
}

// OpenPath opens the index database at dbPath, recreating it when its schema
// version is stale. Rebuilt reports whether that happened.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Rebuilt reports whether OpenPath discarded a stale index. Callers should
// reindex from the task documents when it returns true.
func (s *Store) Rebuilt() bool { return s != nil && s.rebuilt }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
