package queue

import (
	"database/sql"
	"errors"
	"time"

	"reelgen/internal/task"
)

const entryColumns = "task_id, name, status, asset_count, last_completed, last_attempted, error_kind, error_message, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		taskID        string
		name          string
		statusStr     string
		assetCount    int64
		lastCompleted sql.NullString
		lastAttempted sql.NullString
		errorKind     sql.NullString
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&taskID,
		&name,
		&statusStr,
		&assetCount,
		&lastCompleted,
		&lastAttempted,
		&errorKind,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		TaskID:        taskID,
		Name:          name,
		Status:        Status(statusStr),
		AssetCount:    int(assetCount),
		LastCompleted: task.Stage(lastCompleted.String),
		LastAttempted: task.Stage(lastAttempted.String),
		ErrorKind:     errorKind.String,
		ErrorMessage:  errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
