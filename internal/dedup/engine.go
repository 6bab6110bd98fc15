package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// Config tunes the engine. Threshold is inclusive: a similarity score equal
// to it drops the item.
type Config struct {
	Threshold     float64
	Window        time.Duration
	MaxCandidates int
}

func DefaultConfig() Config {
	return Config{
		Threshold:     0.85,
		Window:        72 * time.Hour,
		MaxCandidates: 50,
	}
}

// candidate is a prior KEEP item similarity stage compares against.
type candidate struct {
	url         string
	hash        string
	text        string
	publishedAt time.Time
}

// Engine applies the three dedup stages against run-local state plus the
// cross-run history index. Evaluate is read-only; Commit records a KEEP
// item into both. The engine is safe for concurrent use, but verdicts are
// only deterministic when items are fed in a fixed order (the coordinator
// sorts by ticker, source arrival, then published-at).
type Engine struct {
	cfg   Config
	store HistoryStore
	now   func() time.Time

	mu         sync.Mutex
	keptURLs   map[string]string      // canonical URL -> survivor URL (itself)
	keptHashes map[string]string      // content hash -> survivor URL
	byTicker   map[string][]candidate // run-local KEEP items per ticker
	history    map[string][]candidate // loaded history candidates per ticker
}

func NewEngine(cfg Config, store HistoryStore) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.85
	}
	if cfg.Window <= 0 {
		cfg.Window = 72 * time.Hour
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 50
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		now:        time.Now,
		keptURLs:   make(map[string]string),
		keptHashes: make(map[string]string),
		byTicker:   make(map[string][]candidate),
		history:    make(map[string][]candidate),
	}
}

// Evaluate runs the three stages, short-circuiting on the first match. It
// never mutates kept state: re-evaluating the same item against the same
// prior state returns the same verdict. When the history store is
// unavailable the stages still run against run-local state, so duplicates
// within the run are caught either way; the returned verdict is then
// paired with the store error so the caller can record the degradation.
func (e *Engine) Evaluate(ctx context.Context, item model.NormalizedItem) (model.DedupDecision, error) {
	decision := model.DedupDecision{
		Ticker:       item.Raw.Ticker,
		Source:       item.Raw.Source,
		CanonicalURL: item.CanonicalURL,
		ContentHash:  item.ContentHash,
		DecidedAt:    e.now(),
	}

	hist, histErr := e.loadHistory(ctx, item.Raw.Ticker)
	if histErr != nil {
		hist = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Stage 1: exact canonical URL, this run or recent history.
	if survivor, ok := e.keptURLs[item.CanonicalURL]; ok {
		decision.Verdict = model.VerdictDropURL
		decision.SurvivorURL = survivor
		return decision, histErr
	}
	for _, c := range hist {
		if c.url == item.CanonicalURL {
			decision.Verdict = model.VerdictDropURL
			decision.SurvivorURL = c.url
			return decision, histErr
		}
	}

	// Stage 2: exact content hash.
	if survivor, ok := e.keptHashes[item.ContentHash]; ok {
		decision.Verdict = model.VerdictDropHash
		decision.SurvivorURL = survivor
		return decision, histErr
	}
	for _, c := range hist {
		if c.hash == item.ContentHash {
			decision.Verdict = model.VerdictDropHash
			decision.SurvivorURL = c.url
			return decision, histErr
		}
	}

	// Stage 3: similarity against a bounded per-ticker candidate set.
	best, score := e.bestMatch(item, hist)
	if best != nil && score >= e.cfg.Threshold {
		decision.Verdict = model.VerdictDropSimilar
		decision.SurvivorURL = best.url
		decision.Similarity = score
		return decision, histErr
	}

	decision.Verdict = model.VerdictKeep
	return decision, histErr
}

// Commit records a KEEP item into run-local state and the history index.
func (e *Engine) Commit(ctx context.Context, item model.NormalizedItem) error {
	e.mu.Lock()
	e.keptURLs[item.CanonicalURL] = item.CanonicalURL
	e.keptHashes[item.ContentHash] = item.CanonicalURL
	e.byTicker[item.Raw.Ticker] = append(e.byTicker[item.Raw.Ticker], candidate{
		url:         item.CanonicalURL,
		hash:        item.ContentHash,
		text:        item.NormalizedText,
		publishedAt: item.PublishedAt,
	})
	e.mu.Unlock()

	err := e.store.Put(ctx, HistoryEntry{
		Ticker:       item.Raw.Ticker,
		CanonicalURL: item.CanonicalURL,
		ContentHash:  item.ContentHash,
		PublishedAt:  item.PublishedAt,
		Text:         item.NormalizedText,
	})
	if err != nil {
		return fmt.Errorf("recording kept item: %w", err)
	}
	return nil
}

// bestMatch scores the item against run-local and historical candidates
// for its ticker. Ties at the same score go to the earliest-published
// candidate. Caller holds the mutex.
func (e *Engine) bestMatch(item model.NormalizedItem, hist []candidate) (*candidate, float64) {
	candidates := make([]candidate, 0, len(hist)+len(e.byTicker[item.Raw.Ticker]))
	candidates = append(candidates, e.byTicker[item.Raw.Ticker]...)
	candidates = append(candidates, hist...)

	// Bound the expensive stage: most recent candidates first.
	if len(candidates) > e.cfg.MaxCandidates {
		candidates = candidates[len(candidates)-e.cfg.MaxCandidates:]
	}

	var best *candidate
	bestScore := 0.0
	for i := range candidates {
		c := &candidates[i]
		score := Similarity(item.NormalizedText, c.text)
		if score > bestScore || (score == bestScore && best != nil && score > 0 && c.publishedAt.Before(best.publishedAt)) {
			best = c
			bestScore = score
		}
	}
	if bestScore == 0 {
		return nil, 0
	}
	return best, bestScore
}

// loadHistory fetches and caches the ticker's recent survivors once per run.
func (e *Engine) loadHistory(ctx context.Context, ticker string) ([]candidate, error) {
	e.mu.Lock()
	if hist, ok := e.history[ticker]; ok {
		e.mu.Unlock()
		return hist, nil
	}
	e.mu.Unlock()

	since := e.now().Add(-e.cfg.Window)
	entries, err := e.store.Recent(ctx, ticker, since)
	if err != nil {
		return nil, fmt.Errorf("loading dedup history for %s: %w", ticker, err)
	}

	hist := make([]candidate, 0, len(entries))
	for _, h := range entries {
		hist = append(hist, candidate{
			url:         h.CanonicalURL,
			hash:        h.ContentHash,
			text:        h.Text,
			publishedAt: h.PublishedAt,
		})
	}

	e.mu.Lock()
	e.history[ticker] = hist
	e.mu.Unlock()
	return hist, nil
}
