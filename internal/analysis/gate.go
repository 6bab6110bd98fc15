package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

// Gate is the only path to the LLM provider. It caps how many items per
// ticker get analyzed, funnels every call through the rate-limited retry
// executor, and keeps one item's failure from sinking the rest.
type Gate struct {
	provider Provider
	exec     *throttle.Executor
	policy   throttle.Policy
	now      func() time.Time
}

func NewGate(provider Provider, exec *throttle.Executor) *Gate {
	return &Gate{
		provider: provider,
		exec:     exec,
		policy:   throttle.DefaultPolicy(),
		now:      time.Now,
	}
}

// Select returns the items that will be analyzed for one ticker, at most
// itemCap of them (0 = unlimited). High-credibility items win; within
// the same credibility the most recent wins. Input order breaks
// remaining ties so selection is deterministic.
func (g *Gate) Select(items []model.NormalizedItem, itemCap int) []model.NormalizedItem {
	if itemCap <= 0 || len(items) <= itemCap {
		return items
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := items[idx[a]], items[idx[b]]
		if ia.Raw.Credibility != ib.Raw.Credibility {
			return ia.Raw.Credibility == model.CredibilityHigh
		}
		return ia.PublishedAt.After(ib.PublishedAt)
	})

	keep := make(map[int]bool, itemCap)
	for _, i := range idx[:itemCap] {
		keep[i] = true
	}

	selected := make([]model.NormalizedItem, 0, itemCap)
	for i, it := range items {
		if keep[i] {
			selected = append(selected, it)
		}
	}
	return selected
}

// AnalyzeTicker runs the selected items for one ticker through the
// provider and synthesizes the ticker summary. Items are processed in
// order; a failed item is recorded and skipped. When the digest call
// itself fails the summary falls back to counting the per-item verdicts
// so the run still produces output for the ticker.
func (g *Gate) AnalyzeTicker(ctx context.Context, entry model.WatchlistEntry, items []model.NormalizedItem, itemCap int) ([]model.AnalysisResult, []model.RunFailure, model.TickerSummary) {
	selected := g.Select(items, itemCap)
	if len(selected) < len(items) {
		slog.Info("analysis cap applied", "ticker", entry.Ticker, "eligible", len(items), "selected", len(selected))
	}

	var results []model.AnalysisResult
	var failures []model.RunFailure

	for _, item := range selected {
		var analysis *ItemAnalysis
		err := g.exec.Execute(ctx, g.provider.Name(), g.policy, func(ctx context.Context) error {
			var callErr error
			analysis, callErr = g.provider.AnalyzeItem(ctx, entry, item)
			return callErr
		})
		if err != nil {
			slog.Error("item analysis failed", "ticker", entry.Ticker, "url", item.CanonicalURL, "error", err)
			failures = append(failures, model.RunFailure{
				Stage:  model.FailureAnalysis,
				Source: item.Raw.Source,
				Ticker: entry.Ticker,
				URL:    item.CanonicalURL,
				Error:  err.Error(),
			})
			continue
		}

		results = append(results, model.AnalysisResult{
			Ticker:          entry.Ticker,
			CanonicalURL:    item.CanonicalURL,
			Provider:        g.provider.Name(),
			Model:           g.provider.Model(),
			EventType:       analysis.EventType,
			ImpactDirection: analysis.ImpactDirection,
			Confidence:      analysis.Confidence,
			Summary:         analysis.Summary,
			KeyFacts:        analysis.KeyFacts,
			AnalyzedAt:      g.now().UTC(),
		})
	}

	summary := g.summarize(ctx, entry, results)
	return results, failures, summary
}

func (g *Gate) summarize(ctx context.Context, entry model.WatchlistEntry, results []model.AnalysisResult) model.TickerSummary {
	summary := model.TickerSummary{
		Ticker:      entry.Ticker,
		CompanyName: entry.CompanyName,
		ItemCount:   len(results),
	}
	for _, r := range results {
		switch r.ImpactDirection {
		case "bullish":
			summary.BullishCount++
		case "bearish":
			summary.BearishCount++
		default:
			summary.NeutralCount++
		}
	}

	if len(results) == 0 {
		summary.OverallSentiment = "neutral"
		summary.Summary = "No analyzable items in this window."
		return summary
	}

	var digest *TickerDigest
	err := g.exec.Execute(ctx, g.provider.Name(), g.policy, func(ctx context.Context) error {
		var callErr error
		digest, callErr = g.provider.SummarizeTicker(ctx, entry, results)
		return callErr
	})
	if err != nil {
		slog.Error("ticker digest failed, falling back to counts", "ticker", entry.Ticker, "error", err)
		summary.OverallSentiment = dominantSentiment(summary)
		summary.Summary = fmt.Sprintf("%d items analyzed: %d bullish, %d bearish, %d neutral.",
			summary.ItemCount, summary.BullishCount, summary.BearishCount, summary.NeutralCount)
		// The digest format carries at most three key events.
		for _, r := range results {
			if len(summary.KeyEvents) == 3 {
				break
			}
			summary.KeyEvents = append(summary.KeyEvents, r.Summary)
		}
		return summary
	}

	summary.OverallSentiment = digest.OverallSentiment
	summary.Summary = digest.Summary
	summary.KeyEvents = digest.KeyEvents
	summary.ActionSuggestion = digest.ActionSuggestion
	return summary
}

func dominantSentiment(s model.TickerSummary) string {
	switch {
	case s.BullishCount > s.BearishCount && s.BullishCount > s.NeutralCount:
		return "bullish"
	case s.BearishCount > s.BullishCount && s.BearishCount > s.NeutralCount:
		return "bearish"
	case s.BullishCount == s.BearishCount && s.BullishCount > 0:
		return "mixed"
	default:
		return "neutral"
	}
}
