package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHistory stores the recent-history index in Redis so dedup memory
// survives across runs. Entries live in one sorted set per ticker, scored
// by published-at; writes evict everything older than the window.
type RedisHistory struct {
	rdb    *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewRedisHistory(rdb *redis.Client, window time.Duration) *RedisHistory {
	return &RedisHistory{rdb: rdb, window: window, now: time.Now}
}

func historyKey(ticker string) string {
	return "newsfeed:dedup:history:" + ticker
}

func (r *RedisHistory) Recent(ctx context.Context, ticker string, since time.Time) ([]HistoryEntry, error) {
	members, err := r.rdb.ZRangeByScore(ctx, historyKey(ticker), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reading dedup history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(members))
	for _, m := range members {
		var e HistoryEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			// A malformed member only costs dedup recall, not the run.
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisHistory) Put(ctx context.Context, entry HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}

	key := historyKey(entry.Ticker)
	pipe := r.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(entry.PublishedAt.Unix()),
		Member: string(data),
	})
	cutoff := r.now().Add(-r.window).Unix()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.Expire(ctx, key, r.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing dedup history: %w", err)
	}
	return nil
}
