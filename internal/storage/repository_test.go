package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/session"
)

func newRepo(t *testing.T, ttl time.Duration) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "yeargrid.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := newRepo(t, time.Hour)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	s := session.New(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, got.Tables)
	assert.Equal(t, 1, got.Rows)
	assert.True(t, got.UpdatedAt.Equal(s.UpdatedAt))

	s.Tables, s.Rows = 2, 5
	require.NoError(t, repo.Save(ctx, s))
	got, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Tables)
	assert.Equal(t, 5, got.Rows)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, repo.Ping(ctx))
}

func TestSQLiteRepository_Expiry(t *testing.T) {
	repo := newRepo(t, time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	live := session.New(now)
	stale := session.New(now)
	require.NoError(t, repo.Save(ctx, stale))
	now = now.Add(45 * time.Second)
	require.NoError(t, repo.Save(ctx, live))

	now = now.Add(30 * time.Second)
	_, err := repo.Get(ctx, stale.ID)
	require.ErrorIs(t, err, session.ErrNotFound, "expired rows are invisible")

	_, err = repo.Get(ctx, live.ID)
	require.NoError(t, err)

	n, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// the read above extended the live session
	now = now.Add(50 * time.Second)
	_, err = repo.Get(ctx, live.ID)
	require.NoError(t, err)
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yeargrid.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path, time.Hour)
	require.NoError(t, err)
	s := session.New(time.Now())
	require.NoError(t, repo.Save(ctx, s))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, time.Hour)
	require.NoError(t, err, "migrations are idempotent")
	defer repo.Close()
	_, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
}

func TestSQLiteRepository_InMemory(t *testing.T) {
	repo, err := NewSQLiteRepository(":memory:", time.Hour)
	require.NoError(t, err)
	defer repo.Close()

	s := session.New(time.Now())
	require.NoError(t, repo.Save(context.Background(), s))
	_, err = repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
}

func TestSQLiteRepository_RunJanitorStops(t *testing.T) {
	repo := newRepo(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		repo.RunJanitor(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestQueries_WithTxRollback(t *testing.T) {
	repo := newRepo(t, time.Hour)
	ctx := context.Background()

	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.queries.WithTx(tx).UpsertFormSession(ctx, FormSession{
		ID: "pending", TableCount: 1, RowCount: 1, ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	}))
	require.NoError(t, tx.Rollback())

	_, err = repo.Get(ctx, "pending")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestSQLiteRepository_GetReleasesConnection(t *testing.T) {
	repo := newRepo(t, time.Hour)
	ctx := context.Background()

	s := session.New(time.Now())
	require.NoError(t, repo.Save(ctx, s))
	for range 3 {
		_, err := repo.Get(ctx, s.ID)
		require.NoError(t, err)
		_, err = repo.Get(ctx, "missing")
		require.ErrorIs(t, err, session.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, repo.Save(ctx, s))
}
