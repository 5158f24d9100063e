// Package sqlite persists activity entries and freeze records in a single-file SQLite database
// for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"example.com/daywell/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity_entries (
	entry_id     TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	activity     TEXT NOT NULL,
	duration_min INTEGER NOT NULL CHECK (duration_min > 0),
	entry_date   TEXT NOT NULL,
	entry_hour   INTEGER NOT NULL CHECK (entry_hour BETWEEN 0 AND 23),
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_user_day ON activity_entries(user_id, entry_date, entry_hour);

CREATE TABLE IF NOT EXISTS freeze_states (
	user_id  TEXT PRIMARY KEY,
	since    TEXT NOT NULL,
	snapshot TEXT NOT NULL
);
`

// Repository implements domain.Repository on database/sql with the pure-Go SQLite driver.
type Repository struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and ensures the schema exists. Use ":memory:"
// for a throwaway database.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Insert stores the entry unless the user is frozen.
func (r *Repository) Insert(ctx context.Context, entry domain.ActivityLogEntry) error {
	const stmt = `INSERT INTO activity_entries (entry_id, user_id, activity, duration_min, entry_date, entry_hour, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM freeze_states WHERE user_id = ?)`

	res, err := r.db.ExecContext(ctx, stmt,
		entry.ID,
		entry.UserID,
		entry.Activity,
		entry.DurationMin,
		entry.Date,
		entry.Hour,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.UserID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrFrozen
	}
	return nil
}

// ListByDay returns the user's entries for date ordered by hour then creation time.
func (r *Repository) ListByDay(ctx context.Context, userID, date string) ([]domain.ActivityLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id, user_id, activity, duration_min, entry_date, entry_hour, created_at
		FROM activity_entries
		WHERE user_id = ? AND entry_date = ?
		ORDER BY entry_hour, created_at, entry_id`,
		userID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityLogEntry, 0)
	for rows.Next() {
		var (
			entry   domain.ActivityLogEntry
			created string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Activity, &entry.DurationMin, &entry.Date, &entry.Hour, &created); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the user's entry.
func (r *Repository) Delete(ctx context.Context, userID, entryID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_entries WHERE entry_id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetFreeze loads the user's freeze record, or nil when none exists.
func (r *Repository) GetFreeze(ctx context.Context, userID string) (*domain.FreezeState, error) {
	var since, snapshot string
	err := r.db.QueryRowContext(ctx, `SELECT since, snapshot FROM freeze_states WHERE user_id = ?`, userID).Scan(&since, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := domain.FreezeState{UserID: userID}
	if state.Since, err = time.Parse(time.RFC3339Nano, since); err != nil {
		return nil, fmt.Errorf("parse freeze since: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshot), &state.Snapshot); err != nil {
		return nil, fmt.Errorf("decode frozen snapshot: %w", err)
	}
	return &state, nil
}

// SaveFreeze inserts state unless a record exists and returns the stored record.
func (r *Repository) SaveFreeze(ctx context.Context, state domain.FreezeState) (domain.FreezeState, error) {
	snapshot, err := json.Marshal(state.Snapshot)
	if err != nil {
		return domain.FreezeState{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO freeze_states (user_id, since, snapshot) VALUES (?, ?, ?) ON CONFLICT(user_id) DO NOTHING`,
		state.UserID, state.Since.UTC().Format(time.RFC3339Nano), string(snapshot),
	); err != nil {
		return domain.FreezeState{}, err
	}

	stored, err := r.GetFreeze(ctx, state.UserID)
	if err != nil {
		return domain.FreezeState{}, err
	}
	if stored == nil {
		return domain.FreezeState{}, fmt.Errorf("freeze record for %s vanished", state.UserID)
	}
	return *stored, nil
}

// DeleteFreeze removes the user's freeze record and reports whether one existed.
func (r *Repository) DeleteFreeze(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM freeze_states WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DailyTotals sums entries per (date, activity) for the inclusive range.
func (r *Repository) DailyTotals(ctx context.Context, userID, from, to string) ([]domain.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_date, activity, SUM(duration_min)
		FROM activity_entries
		WHERE user_id = ? AND entry_date BETWEEN ? AND ?
		GROUP BY entry_date, activity
		ORDER BY entry_date, activity`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.DailyTotal, 0)
	for rows.Next() {
		var total domain.DailyTotal
		if err := rows.Scan(&total.Date, &total.Activity, &total.Minutes); err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

var _ domain.Repository = (*Repository)(nil)
