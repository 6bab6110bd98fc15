// Package pipeline drives one full run: collect, normalize, dedup,
// analyze, finalize.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/analysis"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/collector"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/config"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/dedup"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/runtrack"
)

// Coordinator wires the run stages together. One Coordinator serves one
// process; each Run gets its own tracker and dedup engine state is
// shared only through the history store.
type Coordinator struct {
	watchlist       *config.Watchlist
	orchestrator    *collector.Orchestrator
	newEngine       func() *dedup.Engine
	gate            *analysis.Gate
	analysisWorkers int
	now             func() time.Time
}

func NewCoordinator(watchlist *config.Watchlist, orchestrator *collector.Orchestrator, newEngine func() *dedup.Engine, gate *analysis.Gate, analysisWorkers int) *Coordinator {
	if analysisWorkers <= 0 {
		analysisWorkers = 2
	}
	return &Coordinator{
		watchlist:       watchlist,
		orchestrator:    orchestrator,
		newEngine:       newEngine,
		gate:            gate,
		analysisWorkers: analysisWorkers,
		now:             time.Now,
	}
}

// Run executes one pipeline run and returns its finalized record. An
// unresolvable watchlist aborts the run before collection; everything
// past that point degrades to a partial run instead of failing.
func (c *Coordinator) Run(ctx context.Context, params model.RunParams) (model.RunRecord, error) {
	tracker := runtrack.NewRun(params)
	log := slog.With("run_id", tracker.RunID())

	entries, err := c.watchlist.Resolve(params.Tickers)
	if err != nil {
		log.Error("run aborted", "error", err)
		return tracker.Abort(err), err
	}

	tickers := make([]string, len(entries))
	for i, e := range entries {
		tickers[i] = e.Ticker
	}
	log.Info("run started", "tickers", tickers, "lookback_hours", params.LookbackHours, "dry_run", params.DryRun)

	raw, fetchFailures := c.orchestrator.Collect(ctx, tickers, tracker.WindowStart())
	tracker.SetRawCollected(len(raw))
	for _, f := range fetchFailures {
		tracker.RecordFailure(f)
	}
	log.Info("collection complete", "items", len(raw), "failures", len(fetchFailures))

	kept := c.dedup(ctx, tracker, raw)

	if !params.DryRun {
		c.analyze(ctx, tracker, entries, kept)
	}

	record := tracker.Finalize()
	log.Info("run finished",
		"status", record.Status,
		"kept", record.Stats.Kept,
		"dropped_url", record.Stats.DroppedURL,
		"dropped_hash", record.Stats.DroppedHash,
		"dropped_similar", record.Stats.DroppedSimilar,
		"analyzed_ok", record.Stats.AnalyzedOK,
		"analyzed_failed", record.Stats.AnalyzedFailed,
	)
	return record, nil
}

// dedup normalizes the raw items, orders them deterministically and
// feeds them through a fresh engine, one at a time. Survivors come back
// grouped by ticker in decision order.
func (c *Coordinator) dedup(ctx context.Context, tracker *runtrack.Tracker, raw []model.RawItem) map[string][]model.NormalizedItem {
	now := c.now().UTC()
	items := make([]model.NormalizedItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, dedup.Normalize(r, now))
	}

	// Collect returns items grouped by (source, ticker) in registration
	// order. Regroup by ticker, keep source groups in place, and order
	// each group oldest first so the earliest report survives dedup.
	sourceRank := make(map[string]int)
	for _, it := range items {
		if _, ok := sourceRank[it.Raw.Source]; !ok {
			sourceRank[it.Raw.Source] = len(sourceRank)
		}
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Raw.Ticker != items[b].Raw.Ticker {
			return items[a].Raw.Ticker < items[b].Raw.Ticker
		}
		if sourceRank[items[a].Raw.Source] != sourceRank[items[b].Raw.Source] {
			return sourceRank[items[a].Raw.Source] < sourceRank[items[b].Raw.Source]
		}
		return items[a].PublishedAt.Before(items[b].PublishedAt)
	})

	// A broken history store degrades the run: the engine still dedups
	// against run-local state, and the failure lands on the RunRecord so
	// the run finalizes as partial, once per ticker.
	historyDown := make(map[string]bool)
	recordHistoryFailure := func(item model.NormalizedItem, err error) {
		if historyDown[item.Raw.Ticker] {
			return
		}
		historyDown[item.Raw.Ticker] = true
		tracker.RecordFailure(model.RunFailure{
			Stage:  model.FailureDedup,
			Source: item.Raw.Source,
			Ticker: item.Raw.Ticker,
			Error:  err.Error(),
		})
	}

	engine := c.newEngine()
	kept := make(map[string][]model.NormalizedItem)
	for _, item := range items {
		decision, err := engine.Evaluate(ctx, item)
		if err != nil {
			slog.Error("dedup history unavailable", "ticker", item.Raw.Ticker, "url", item.CanonicalURL, "error", err)
			recordHistoryFailure(item, err)
		}
		tracker.RecordDecision(decision)

		if decision.Verdict != model.VerdictKeep {
			continue
		}
		if err := engine.Commit(ctx, item); err != nil {
			slog.Error("dedup history write failed", "url", item.CanonicalURL, "error", err)
			recordHistoryFailure(item, err)
		}
		kept[item.Raw.Ticker] = append(kept[item.Raw.Ticker], item)
	}
	return kept
}

func (c *Coordinator) analyze(ctx context.Context, tracker *runtrack.Tracker, entries []model.WatchlistEntry, kept map[string][]model.NormalizedItem) {
	g := &errgroup.Group{}
	g.SetLimit(c.analysisWorkers)

	for _, entry := range entries {
		entry := entry
		items := kept[entry.Ticker]
		g.Go(func() error {
			results, failures, summary := c.gate.AnalyzeTicker(ctx, entry, items, tracker.Params().PerTickerCap)
			for _, r := range results {
				tracker.RecordResult(r)
			}
			for _, f := range failures {
				tracker.RecordFailure(f)
			}
			tracker.RecordSummary(summary)
			return nil
		})
	}
	g.Wait()
}
