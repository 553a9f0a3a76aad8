package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/domain/hero"
	"hero-server/internal/platform/cache"
	"hero-server/internal/storage/memory"
	"hero-server/internal/storage/storagetest"
)

const testTTL = time.Minute

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newCached(t *testing.T, client *redis.Client) (*memory.Store, herosvc.Repository) {
	t.Helper()
	inner, err := memory.New()
	require.NoError(t, err)
	return inner, Wrap(inner, client, testTTL, zerolog.Nop())
}

func TestWrapPassThrough(t *testing.T) {
	inner, err := memory.New()
	require.NoError(t, err)

	assert.Same(t, inner, Wrap(inner, nil, time.Minute, zerolog.Nop()))
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	assert.Same(t, inner, Wrap(inner, client, 0, zerolog.Nop()))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "heroes:0:id:42", idKey(0, "42"))
	assert.Equal(t, "heroes:3:all", allKey(3))
}

func TestConformanceWithCache(t *testing.T) {
	mr, client := newMiniredis(t)
	storagetest.Run(t, func(t *testing.T) herosvc.Repository {
		mr.FlushAll()
		_, repo := newCached(t, client)
		return repo
	})
}

func TestConformanceWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	storagetest.Run(t, func(t *testing.T) herosvc.Repository {
		_, repo := newCached(t, client)
		return repo
	})
}

func TestReadsAreServedFromCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	inner, repo := newCached(t, client)

	saved, err := repo.Save(ctx, storagetest.Superman())
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(idKey(1, saved.ID)))
	assert.True(t, mr.Exists(allKey(1)))
	assert.Equal(t, testTTL, mr.TTL(idKey(1, saved.ID)))

	// A write behind the decorator's back stays invisible until the entry expires.
	changed := saved
	changed.Name = "Clark Kent"
	_, err = inner.Save(ctx, changed)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Superman", got.Name)
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Superman", all[0].Name)

	mr.FastForward(testTTL + time.Second)
	got, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clark Kent", got.Name)
}

func TestSaveInvalidatesCachedReads(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)
	_, repo := newCached(t, client)

	saved, err := repo.Save(ctx, storagetest.Superman())
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)

	saved.Name = "Kal-El"
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kal-El", got.Name)
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Kal-El", all[0].Name)
}

func TestLateRefillAfterSaveIsNotServed(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	_, repo := newCached(t, client)
	cached := repo.(*Repository)

	first, err := repo.Save(ctx, storagetest.Superman())
	require.NoError(t, err)

	// A FindAll that read the generation and the store before the next save
	// finishes its refill afterwards.
	gen, ok := cached.generation(ctx)
	require.True(t, ok)
	stale, err := repo.FindAll(ctx)
	require.NoError(t, err)

	_, err = repo.Save(ctx, storagetest.Batman())
	require.NoError(t, err)
	cached.set(ctx, allKey(gen), stale)
	assert.True(t, mr.Exists(allKey(gen)))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "Batman", all[1].Name)
}

func TestMissingHeroIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	_, repo := newCached(t, client)

	_, err := repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, hero.ErrNotFound)
	assert.False(t, mr.Exists(idKey(0, "ghost")))
}

func TestUnreadableEntryFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	_, repo := newCached(t, client)

	saved, err := repo.Save(ctx, storagetest.Batman())
	require.NoError(t, err)
	require.NoError(t, mr.Set(idKey(1, saved.ID), "{not json"))

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Batman", got.Name)
}

// Set REDIS_TEST_ADDR to exercise the cache against a live server.
func TestCachedRepositoryLive(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := cache.New(ctx, cache.Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	storagetest.Run(t, func(t *testing.T) herosvc.Repository {
		require.NoError(t, client.FlushDB(ctx).Err())
		_, repo := newCached(t, client)
		return repo
	})
}
