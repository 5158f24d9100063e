// Package postgres stores activity entries, freeze records and outbox events in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/events"
)

// Repository provides Postgres-backed persistence for activity entries, freeze records, the
// daily totals read model and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores the entry and its activity.logged event in one transaction. The insert is
// guarded against a concurrent freeze and reports domain.ErrFrozen when it loses that race.
func (r *Repository) Insert(ctx context.Context, entry domain.ActivityLogEntry) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO activity_entries (entry_id, user_id, activity, duration_min, entry_date, entry_hour, created_at)
        SELECT $1, $2, $3, $4, $5::text::date, $6, $7
        WHERE NOT EXISTS (SELECT 1 FROM freeze_states WHERE user_id = $2)`

	tag, err := tx.Exec(ctx, stmt,
		entry.ID,
		entry.UserID,
		entry.Activity,
		entry.DurationMin,
		entry.Date,
		entry.Hour,
		entry.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrFrozen
		return err
	}

	if err = insertOutbox(ctx, tx, outboxRecord{
		aggregateType: "activity_entry",
		aggregateID:   entry.ID,
		eventType:     events.TypeActivityLogged,
		partitionKey:  entry.UserID,
		dedupeKey:     fmt.Sprintf("%s:%s", entry.ID, events.TypeActivityLogged),
		payload: events.ActivityLogged{
			EntryID:     entry.ID,
			UserID:      entry.UserID,
			Activity:    entry.Activity,
			Date:        entry.Date,
			Hour:        entry.Hour,
			DurationMin: entry.DurationMin,
			OccurredAt:  entry.CreatedAt,
		},
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByDay returns the user's entries for date ordered by hour then creation time.
func (r *Repository) ListByDay(ctx context.Context, userID, date string) ([]domain.ActivityLogEntry, error) {
	const query = `SELECT entry_id, user_id, activity, duration_min, entry_date::text, entry_hour, created_at
        FROM activity_entries
        WHERE user_id = $1 AND entry_date = $2::text::date
        ORDER BY entry_hour, created_at, entry_id`

	rows, err := r.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityLogEntry, 0)
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Activity, &entry.DurationMin, &entry.Date, &entry.Hour, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes the user's entry and records activity.deleted alongside it.
func (r *Repository) Delete(ctx context.Context, userID, entryID string) (deleted bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `DELETE FROM activity_entries
        WHERE entry_id = $1 AND user_id = $2
        RETURNING activity, duration_min, entry_date::text, entry_hour`

	var removed events.ActivityDeleted
	err = tx.QueryRow(ctx, stmt, entryID, userID).Scan(&removed.Activity, &removed.DurationMin, &removed.Date, &removed.Hour)
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		tx.Rollback(ctx)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	removed.EntryID = entryID
	removed.UserID = userID
	removed.OccurredAt = time.Now().UTC()
	if err = insertOutbox(ctx, tx, outboxRecord{
		aggregateType: "activity_entry",
		aggregateID:   entryID,
		eventType:     events.TypeActivityDeleted,
		partitionKey:  userID,
		dedupeKey:     fmt.Sprintf("%s:%s", entryID, events.TypeActivityDeleted),
		payload:       removed,
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GetFreeze loads the user's freeze record, or nil when none exists.
func (r *Repository) GetFreeze(ctx context.Context, userID string) (*domain.FreezeState, error) {
	return getFreeze(ctx, r.pool, userID)
}

// SaveFreeze inserts state unless a record already exists and returns whichever record is stored.
func (r *Repository) SaveFreeze(ctx context.Context, state domain.FreezeState) (stored domain.FreezeState, err error) {
	snapshot, err := json.Marshal(state.Snapshot)
	if err != nil {
		return domain.FreezeState{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.FreezeState{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`INSERT INTO freeze_states (user_id, since, snapshot) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`,
		state.UserID, state.Since, snapshot,
	)
	if err != nil {
		return domain.FreezeState{}, err
	}
	if tag.RowsAffected() == 1 {
		if err = insertFreezeChanged(ctx, tx, state.UserID, true, state.Since); err != nil {
			return domain.FreezeState{}, err
		}
	}

	current, err := getFreeze(ctx, tx, state.UserID)
	if err != nil {
		return domain.FreezeState{}, err
	}
	if current == nil {
		err = fmt.Errorf("freeze record for %s vanished", state.UserID)
		return domain.FreezeState{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.FreezeState{}, err
	}
	return *current, nil
}

// DeleteFreeze removes the user's freeze record and reports whether one existed.
func (r *Repository) DeleteFreeze(ctx context.Context, userID string) (removed bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM freeze_states WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		tx.Rollback(ctx)
		return false, nil
	}
	if err = insertFreezeChanged(ctx, tx, userID, false, time.Now().UTC()); err != nil {
		return false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// DailyTotals reads the rollup maintained by the consumer.
func (r *Repository) DailyTotals(ctx context.Context, userID, from, to string) ([]domain.DailyTotal, error) {
	const query = `SELECT total_date::text, activity, minutes
        FROM daily_activity_totals
        WHERE user_id = $1 AND total_date BETWEEN $2::text::date AND $3::text::date AND minutes > 0
        ORDER BY total_date, activity`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

// ApplyRollup adds delta minutes to one (user, date, activity) total. Each eventKey is applied
// at most once; redelivered events report applied=false and change nothing.
func (r *Repository) ApplyRollup(ctx context.Context, eventKey, userID, date, activity string, delta int) (applied bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `INSERT INTO rollup_applied_events (event_key) VALUES ($1) ON CONFLICT (event_key) DO NOTHING`, eventKey)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		tx.Rollback(ctx)
		return false, nil
	}

	const upsert = `INSERT INTO daily_activity_totals (user_id, total_date, activity, minutes)
        VALUES ($1, $2::text::date, $3, $4)
        ON CONFLICT (user_id, total_date, activity)
        DO UPDATE SET minutes = daily_activity_totals.minutes + EXCLUDED.minutes`

	if _, err = tx.Exec(ctx, upsert, userID, date, activity, delta); err != nil {
		return false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getFreeze(ctx context.Context, q querier, userID string) (*domain.FreezeState, error) {
	var (
		state    domain.FreezeState
		snapshot []byte
	)
	err := q.QueryRow(ctx, `SELECT user_id, since, snapshot FROM freeze_states WHERE user_id = $1`, userID).
		Scan(&state.UserID, &state.Since, &snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &state.Snapshot); err != nil {
		return nil, fmt.Errorf("decode frozen snapshot: %w", err)
	}
	state.Since = state.Since.UTC()
	return &state, nil
}

type outboxRecord struct {
	aggregateType string
	aggregateID   string
	eventType     string
	partitionKey  string
	dedupeKey     string
	payload       any
}

func insertOutbox(ctx context.Context, tx pgx.Tx, rec outboxRecord) error {
	body, err := json.Marshal(rec.payload)
	if err != nil {
		return err
	}

	route, err := events.RouteFor(rec.eventType)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		rec.aggregateType,
		rec.aggregateID,
		rec.eventType,
		route.Topic,
		route.SchemaSubject,
		rec.partitionKey,
		body,
		nullIfEmpty(rec.dedupeKey),
	)
	return err
}

func insertFreezeChanged(ctx context.Context, tx pgx.Tx, userID string, frozen bool, at time.Time) error {
	return insertOutbox(ctx, tx, outboxRecord{
		aggregateType: "freeze",
		aggregateID:   userID,
		eventType:     events.TypeFreezeChanged,
		partitionKey:  userID,
		dedupeKey:     fmt.Sprintf("%s:%s:%d", userID, events.TypeFreezeChanged, at.UnixNano()),
		payload:       events.FreezeChanged{UserID: userID, Frozen: frozen, OccurredAt: at},
	})
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

var _ domain.Repository = (*Repository)(nil)
