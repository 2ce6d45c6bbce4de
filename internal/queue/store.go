package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Upsert inserts entry or replaces every mutable column of an existing row.
// CreatedAt is kept from the first insert.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.TaskID) == "" {
		return errors.New("upsert entry: task id required")
	}
	if entry.Status == "" {
		entry.Status = StatusPending
	}
	now := time.Now().UTC()
	created := entry.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := s.exec(
		ctx,
		`INSERT INTO tasks (
            task_id, name, status, asset_count, last_completed, last_attempted,
            error_kind, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(task_id) DO UPDATE SET
            name = excluded.name,
            status = excluded.status,
            asset_count = excluded.asset_count,
            last_completed = excluded.last_completed,
            last_attempted = excluded.last_attempted,
            error_kind = excluded.error_kind,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		entry.TaskID,
		entry.Name,
		string(entry.Status),
		entry.AssetCount,
		nullableString(string(entry.LastCompleted)),
		nullableString(string(entry.LastAttempted)),
		nullableString(entry.ErrorKind),
		nullableString(entry.ErrorMessage),
		created.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// Get returns the entry for taskID, or nil when the task is not indexed.
func (s *Store) Get(ctx context.Context, taskID string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM tasks WHERE task_id = ?`, taskID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns entries oldest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at, task_id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Stats returns the number of indexed tasks per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Remove deletes the entry for taskID.
func (s *Store) Remove(ctx context.Context, taskID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.exec(ctx, `SELECT 1`)
	return err
}
