package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/cache"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	s := New(now)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, got.Tables)
	assert.Equal(t, 1, got.Rows)
	assert.True(t, got.UpdatedAt.Equal(now))

	s.Tables, s.Rows = 3, 4
	require.NoError(t, store.Save(ctx, s))
	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Tables)
	assert.Equal(t, 4, got.Rows)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete(ctx, s.ID), "deleting twice is not an error")

	require.NoError(t, store.Ping(ctx))
}

func TestNew(t *testing.T) {
	a := New(time.Now())
	b := New(time.Now())
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, ValidID(a.ID))
	assert.False(t, ValidID("not-a-session"))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(10, time.Minute, cache.WithClock(clock))
	ctx := context.Background()

	s := New(now)
	require.NoError(t, store.Save(ctx, s))

	now = now.Add(50 * time.Second)
	_, err := store.Get(ctx, s.ID)
	require.NoError(t, err, "read within TTL renews the session")

	now = now.Add(50 * time.Second)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreJanitor(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	store.StartJanitor(cache.NewManager(nil), time.Hour)
	require.NoError(t, store.Save(context.Background(), New(time.Now())))
	assert.Equal(t, 1, store.Len())
	require.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	defer store.Close()

	exerciseStore(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	defer store.Close()
	ctx := context.Background()

	s := New(time.Now())
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+s.ID))

	mr.FastForward(30 * time.Second)
	_, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+s.ID), "Get renews the TTL")

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	defer store.Close()

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "{not json"))
	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := DialRedis(context.Background(), addr)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = DialRedis(context.Background(), addr)
	require.Error(t, err)
}
