package dedup

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HistoryEntry is one previously kept item, remembered across runs so a
// story ingested yesterday is not analyzed again when it resurfaces today.
type HistoryEntry struct {
	Ticker       string    `json:"ticker"`
	CanonicalURL string    `json:"canonical_url"`
	ContentHash  string    `json:"content_hash"`
	PublishedAt  time.Time `json:"published_at"`
	Text         string    `json:"text"`
}

// HistoryStore is the bounded recent-history index. Implementations evict
// entries older than their retention window; Recent never returns entries
// published before since.
type HistoryStore interface {
	Recent(ctx context.Context, ticker string, since time.Time) ([]HistoryEntry, error)
	Put(ctx context.Context, entry HistoryEntry) error
}

// MemoryHistory is an in-process HistoryStore used in tests and dry runs.
type MemoryHistory struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string][]HistoryEntry
	now     func() time.Time
}

func NewMemoryHistory(window time.Duration) *MemoryHistory {
	return &MemoryHistory{
		window:  window,
		entries: make(map[string][]HistoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryHistory) Recent(ctx context.Context, ticker string, since time.Time) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evict(ticker)

	var out []HistoryEntry
	for _, e := range m.entries[ticker] {
		if !e.PublishedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.Before(out[j].PublishedAt) })
	return out, nil
}

func (m *MemoryHistory) Put(ctx context.Context, entry HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.Ticker] = append(m.entries[entry.Ticker], entry)
	m.evict(entry.Ticker)
	return nil
}

// evict drops entries outside the retention window. Caller holds the mutex.
func (m *MemoryHistory) evict(ticker string) {
	cutoff := m.now().Add(-m.window)
	kept := m.entries[ticker][:0]
	for _, e := range m.entries[ticker] {
		if e.PublishedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	m.entries[ticker] = kept
}
