package cache

import (
	"context"
	"testing"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, _ := setupTestCache(t)
	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewCacheUnreachable(t *testing.T) {
	_, err := NewCache("127.0.0.1", 1, "", 0)
	assert.Error(t, err)
}

func TestCache_ActiveAnnouncements(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	_, found, err := cache.GetActiveAnnouncements(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	list := []*models.Announcement{{ID: 1, Title: "Promo", Content: "50% off", IsActive: true}}
	require.NoError(t, cache.SetActiveAnnouncements(ctx, list, time.Minute))

	got, found, err := cache.GetActiveAnnouncements(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "Promo", got[0].Title)

	mr.FastForward(2 * time.Minute)
	_, found, err = cache.GetActiveAnnouncements(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetActiveAnnouncements(ctx, list, time.Minute))
	require.NoError(t, cache.InvalidateAnnouncements(ctx))
	_, found, err = cache.GetActiveAnnouncements(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_RateLimit(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := cache.CheckRateLimit(ctx, "login:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := cache.CheckRateLimit(ctx, "login:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = cache.CheckRateLimit(ctx, "login:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.ResetRateLimit(ctx, "login:1.2.3.4"))
	assert.False(t, mr.Exists("ratelimit:login:1.2.3.4"))
}

func TestCache_Lock(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.AcquireLock(ctx, "payment:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.AcquireLock(ctx, "payment:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.ReleaseLock(ctx, "payment:1"))

	ok, err = cache.AcquireLock(ctx, "payment:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_TokenRevocation(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	revoked, err := cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.RevokeToken(ctx, "jti-1", time.Hour))
	revoked, err = cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.RevokeToken(ctx, "jti-2", 0))
	revoked, err = cache.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
