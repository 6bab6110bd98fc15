package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisHistory(t *testing.T) *RedisHistory {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisHistory(rdb, 72*time.Hour)
}

func TestRedisHistory_PutAndRecent(t *testing.T) {
	h := newRedisHistory(t)
	ctx := context.Background()
	now := time.Now()

	entry := HistoryEntry{
		Ticker:       "NVDA",
		CanonicalURL: "https://example.com/story",
		ContentHash:  "abc123",
		PublishedAt:  now.Add(-time.Hour),
		Text:         "nvidia reports record revenue",
	}
	require.NoError(t, h.Put(ctx, entry))

	got, err := h.Recent(ctx, "NVDA", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, entry.CanonicalURL, got[0].CanonicalURL)
	require.Equal(t, entry.ContentHash, got[0].ContentHash)
	require.Equal(t, entry.Text, got[0].Text)
}

func TestRedisHistory_WindowFiltering(t *testing.T) {
	h := newRedisHistory(t)
	ctx := context.Background()
	now := time.Now()

	old := HistoryEntry{Ticker: "NVDA", CanonicalURL: "https://a.com/old", PublishedAt: now.Add(-48 * time.Hour)}
	fresh := HistoryEntry{Ticker: "NVDA", CanonicalURL: "https://a.com/new", PublishedAt: now.Add(-time.Hour)}
	require.NoError(t, h.Put(ctx, old))
	require.NoError(t, h.Put(ctx, fresh))

	got, err := h.Recent(ctx, "NVDA", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://a.com/new", got[0].CanonicalURL)
}

func TestRedisHistory_EvictsBeyondRetention(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	h := NewRedisHistory(rdb, time.Hour)
	ctx := context.Background()
	now := time.Now()

	stale := HistoryEntry{Ticker: "TSM", CanonicalURL: "https://a.com/stale", PublishedAt: now.Add(-3 * time.Hour)}
	require.NoError(t, h.Put(ctx, stale))

	// The next write prunes anything outside the retention window.
	fresh := HistoryEntry{Ticker: "TSM", CanonicalURL: "https://a.com/fresh", PublishedAt: now}
	require.NoError(t, h.Put(ctx, fresh))

	got, err := h.Recent(ctx, "TSM", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://a.com/fresh", got[0].CanonicalURL)
}

func TestRedisHistory_TickersAreIsolated(t *testing.T) {
	h := newRedisHistory(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, h.Put(ctx, HistoryEntry{Ticker: "NVDA", CanonicalURL: "https://a.com/1", PublishedAt: now}))

	got, err := h.Recent(ctx, "TSM", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 0)
}
