//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/events"
)

func TestRepositoryEntriesAndOutbox(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	entry := domain.ActivityLogEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Activity:    "work",
		DurationMin: 90,
		Date:        "2025-06-02",
		Hour:        9,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Insert(ctx, entry))

	entries, err := repo.ListByDay(ctx, userID, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID, entries[0].ID)
	require.Equal(t, "2025-06-02", entries[0].Date)
	require.Equal(t, 9, entries[0].Hour)

	other, err := repo.ListByDay(ctx, uuid.NewString(), "2025-06-02")
	require.NoError(t, err)
	require.Empty(t, other)

	deleted, err := repo.Delete(ctx, uuid.NewString(), entry.ID)
	require.NoError(t, err)
	require.False(t, deleted, "foreign users must not delete entries")

	deleted, err = repo.Delete(ctx, userID, entry.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	var types []string
	rows, err := pool.Query(ctx, `SELECT event_type FROM outbox WHERE partition_key = $1 ORDER BY event_id`, userID)
	require.NoError(t, err)
	for rows.Next() {
		var eventType string
		require.NoError(t, rows.Scan(&eventType))
		types = append(types, eventType)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{events.TypeActivityLogged, events.TypeActivityDeleted}, types)
}

func TestRepositoryFreezeGuardsInsert(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	since := time.Now().UTC().Truncate(time.Microsecond)
	snapshot := domain.Aggregate(userID, "2025-06-02", nil, since)

	stored, err := repo.SaveFreeze(ctx, domain.FreezeState{UserID: userID, Since: since, Snapshot: snapshot})
	require.NoError(t, err)
	require.True(t, since.Equal(stored.Since))

	again, err := repo.SaveFreeze(ctx, domain.FreezeState{UserID: userID, Since: since.Add(time.Hour), Snapshot: snapshot})
	require.NoError(t, err)
	require.True(t, since.Equal(again.Since), "existing freeze must win")

	err = repo.Insert(ctx, domain.ActivityLogEntry{
		ID: uuid.NewString(), UserID: userID, Activity: "rest", DurationMin: 10,
		Date: "2025-06-02", Hour: 1, CreatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, domain.ErrFrozen)

	removed, err := repo.DeleteFreeze(ctx, userID)
	require.NoError(t, err)
	require.True(t, removed)

	state, err := repo.GetFreeze(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestRepositoryApplyRollupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	applied, err := repo.ApplyRollup(ctx, "e1:activity.logged", userID, "2025-06-02", "work", 60)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = repo.ApplyRollup(ctx, "e1:activity.logged", userID, "2025-06-02", "work", 60)
	require.NoError(t, err)
	require.False(t, applied)

	_, err = repo.ApplyRollup(ctx, "e2:activity.logged", userID, "2025-06-02", "work", 30)
	require.NoError(t, err)
	_, err = repo.ApplyRollup(ctx, "e3:activity.logged", userID, "2025-06-03", "rest", 20)
	require.NoError(t, err)
	_, err = repo.ApplyRollup(ctx, "e3:activity.deleted", userID, "2025-06-03", "rest", -20)
	require.NoError(t, err)

	totals, err := repo.DailyTotals(ctx, userID, "2025-06-01", "2025-06-03")
	require.NoError(t, err)
	require.Equal(t, []domain.DailyTotal{{Date: "2025-06-02", Activity: "work", Minutes: 90}}, totals)
}

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("daywell"),
		postgrescontainer.WithUsername("daywell"),
		postgrescontainer.WithPassword("daywell"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	contents, err := os.ReadFile(resolvePath(t, "../../../db/postgres/migrations/0001_init.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)

	return pool
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
