package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

// Orchestrator drives every (source, ticker) fetch through the retry
// executor on a bounded worker pool. A failed fetch is recorded and the
// rest of the run continues; only context cancellation stops the fan-out.
type Orchestrator struct {
	collectors []Collector
	exec       *throttle.Executor
	policy     throttle.Policy
	workers    int
}

func NewOrchestrator(collectors []Collector, exec *throttle.Executor, workers int) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		collectors: collectors,
		exec:       exec,
		policy:     throttle.DefaultPolicy(),
		workers:    workers,
	}
}

// Collect fetches all tickers from all sources since the given time.
// Returned items keep (source, ticker, source-reported) order regardless
// of which worker finished first, so downstream dedup sees a
// deterministic sequence. Failures come back alongside, never instead of,
// the items that did arrive.
func (o *Orchestrator) Collect(ctx context.Context, tickers []string, since time.Time) ([]model.RawItem, []model.RunFailure) {
	type pair struct {
		collector Collector
		ticker    string
	}

	var pairs []pair
	for _, c := range o.collectors {
		for _, t := range tickers {
			pairs = append(pairs, pair{collector: c, ticker: t})
		}
	}

	results := make([][]model.RawItem, len(pairs))
	var mu sync.Mutex
	var failures []model.RunFailure

	g := &errgroup.Group{}
	g.SetLimit(o.workers)

	for i, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			var items []model.RawItem
			err := o.exec.Execute(ctx, p.collector.Name(), o.policy, func(ctx context.Context) error {
				var fetchErr error
				items, fetchErr = p.collector.FetchSince(ctx, p.ticker, since)
				return fetchErr
			})
			if err != nil {
				slog.Error("source fetch failed", "source", p.collector.Name(), "ticker", p.ticker, "error", err)
				mu.Lock()
				failures = append(failures, model.RunFailure{
					Stage:  model.FailureFetch,
					Source: p.collector.Name(),
					Ticker: p.ticker,
					Error:  err.Error(),
				})
				mu.Unlock()
				return nil
			}

			slog.Info("source fetch complete", "source", p.collector.Name(), "ticker", p.ticker, "items", len(items))
			results[i] = items
			return nil
		})
	}
	g.Wait()

	var all []model.RawItem
	for _, items := range results {
		all = append(all, items...)
	}
	return all, failures
}
