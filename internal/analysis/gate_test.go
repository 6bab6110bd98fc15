package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

type fakeProvider struct {
	analyses     map[string]*ItemAnalysis
	analyzeErr   map[string]error
	digest       *TickerDigest
	digestErr    error
	analyzeCalls []string
	digestCalls  int
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) AnalyzeItem(ctx context.Context, entry model.WatchlistEntry, item model.NormalizedItem) (*ItemAnalysis, error) {
	f.analyzeCalls = append(f.analyzeCalls, item.CanonicalURL)
	if err := f.analyzeErr[item.CanonicalURL]; err != nil {
		return nil, err
	}
	if a, ok := f.analyses[item.CanonicalURL]; ok {
		return a, nil
	}
	return &ItemAnalysis{EventType: "other", ImpactDirection: "neutral", Confidence: 0.5, Summary: "nothing notable"}, nil
}

func (f *fakeProvider) SummarizeTicker(ctx context.Context, entry model.WatchlistEntry, results []model.AnalysisResult) (*TickerDigest, error) {
	f.digestCalls++
	if f.digestErr != nil {
		return nil, f.digestErr
	}
	return f.digest, nil
}

func testGate(p Provider) *Gate {
	limiter := throttle.NewLimiter(map[string]throttle.Limit{
		"fake": {Calls: 1000, Window: time.Minute},
	})
	g := NewGate(p, throttle.NewExecutor(limiter))
	g.policy = throttle.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2}
	return g
}

func normItem(url string, cred string, published time.Time) model.NormalizedItem {
	return model.NormalizedItem{
		Raw:          model.RawItem{Source: "finnhub", Ticker: "NVDA", Credibility: cred},
		CanonicalURL: url,
		PublishedAt:  published,
	}
}

func TestSelect_CredibilityThenRecency(t *testing.T) {
	base := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	items := []model.NormalizedItem{
		normItem("https://a.com/old-news", model.CredibilityMedium, base.Add(-3*time.Hour)),
		normItem("https://a.com/new-news", model.CredibilityMedium, base),
		normItem("https://a.com/filing", model.CredibilityHigh, base.Add(-6*time.Hour)),
		normItem("https://a.com/mid-news", model.CredibilityMedium, base.Add(-1*time.Hour)),
	}

	g := testGate(&fakeProvider{})
	selected := g.Select(items, 2)

	// The filing wins on credibility despite being oldest; the newest
	// news item takes the remaining slot. Input order is preserved.
	assert.Equal(t, 2, len(selected))
	assert.Equal(t, "https://a.com/new-news", selected[0].CanonicalURL)
	assert.Equal(t, "https://a.com/filing", selected[1].CanonicalURL)
}

func TestSelect_ZeroCapIsUnlimited(t *testing.T) {
	items := []model.NormalizedItem{
		normItem("https://a.com/1", model.CredibilityMedium, time.Now()),
		normItem("https://a.com/2", model.CredibilityMedium, time.Now()),
	}

	g := testGate(&fakeProvider{})
	assert.Equal(t, 2, len(g.Select(items, 0)))
}

func TestAnalyzeTicker_MapsResults(t *testing.T) {
	p := &fakeProvider{
		analyses: map[string]*ItemAnalysis{
			"https://a.com/1": {EventType: "earnings", ImpactDirection: "bullish", Confidence: 0.9, Summary: "beat estimates", KeyFacts: []string{"EPS $5.10"}},
		},
		digest: &TickerDigest{OverallSentiment: "bullish", Summary: "strong quarter", KeyEvents: []string{"earnings beat"}, ActionSuggestion: "hold"},
	}
	g := testGate(p)

	entry := model.WatchlistEntry{Ticker: "NVDA", CompanyName: "NVIDIA"}
	items := []model.NormalizedItem{normItem("https://a.com/1", model.CredibilityMedium, time.Now())}

	results, failures, summary := g.AnalyzeTicker(context.Background(), entry, items, 5)

	assert.Equal(t, 0, len(failures))
	assert.Equal(t, 1, len(results))
	assert.Equal(t, "fake", results[0].Provider)
	assert.Equal(t, "fake-model", results[0].Model)
	assert.Equal(t, "earnings", results[0].EventType)
	assert.Equal(t, "bullish", results[0].ImpactDirection)

	assert.Equal(t, "bullish", summary.OverallSentiment)
	assert.Equal(t, "hold", summary.ActionSuggestion)
	assert.Equal(t, 1, summary.BullishCount)
}

func TestAnalyzeTicker_FailureIsolation(t *testing.T) {
	p := &fakeProvider{
		analyses: map[string]*ItemAnalysis{
			"https://a.com/good": {EventType: "product", ImpactDirection: "bullish", Confidence: 0.7, Summary: "launch"},
		},
		analyzeErr: map[string]error{
			"https://a.com/bad": &throttle.StatusError{Service: "fake", StatusCode: 400},
		},
		digest: &TickerDigest{OverallSentiment: "bullish", Summary: "net positive"},
	}
	g := testGate(p)

	entry := model.WatchlistEntry{Ticker: "NVDA"}
	items := []model.NormalizedItem{
		normItem("https://a.com/bad", model.CredibilityMedium, time.Now()),
		normItem("https://a.com/good", model.CredibilityMedium, time.Now()),
	}

	results, failures, summary := g.AnalyzeTicker(context.Background(), entry, items, 5)

	assert.Equal(t, 1, len(results))
	assert.Equal(t, "https://a.com/good", results[0].CanonicalURL)

	assert.Equal(t, 1, len(failures))
	assert.Equal(t, model.FailureAnalysis, failures[0].Stage)
	assert.Equal(t, "https://a.com/bad", failures[0].URL)

	assert.Equal(t, 1, summary.ItemCount)
}

func TestAnalyzeTicker_DigestFallbackCounts(t *testing.T) {
	p := &fakeProvider{
		analyses: map[string]*ItemAnalysis{
			"https://a.com/1": {EventType: "earnings", ImpactDirection: "bullish", Confidence: 0.8, Summary: "beat"},
			"https://a.com/2": {EventType: "legal", ImpactDirection: "bearish", Confidence: 0.6, Summary: "lawsuit"},
			"https://a.com/3": {EventType: "product", ImpactDirection: "bullish", Confidence: 0.7, Summary: "launch"},
			"https://a.com/4": {EventType: "contract", ImpactDirection: "bullish", Confidence: 0.7, Summary: "deal"},
		},
		digestErr: &throttle.StatusError{Service: "fake", StatusCode: 400},
	}
	g := testGate(p)

	entry := model.WatchlistEntry{Ticker: "NVDA"}
	items := []model.NormalizedItem{
		normItem("https://a.com/1", model.CredibilityMedium, time.Now()),
		normItem("https://a.com/2", model.CredibilityMedium, time.Now()),
		normItem("https://a.com/3", model.CredibilityMedium, time.Now()),
		normItem("https://a.com/4", model.CredibilityMedium, time.Now()),
	}

	results, failures, summary := g.AnalyzeTicker(context.Background(), entry, items, 5)

	assert.Equal(t, 4, len(results))
	assert.Equal(t, 0, len(failures))

	assert.Equal(t, "bullish", summary.OverallSentiment)
	assert.Equal(t, "4 items analyzed: 3 bullish, 1 bearish, 0 neutral.", summary.Summary)
	// Key events top out at three even when more items were analyzed.
	assert.Equal(t, 3, len(summary.KeyEvents))
}

func TestAnalyzeTicker_NoItems(t *testing.T) {
	p := &fakeProvider{}
	g := testGate(p)

	results, failures, summary := g.AnalyzeTicker(context.Background(), model.WatchlistEntry{Ticker: "NVDA"}, nil, 5)

	assert.Equal(t, 0, len(results))
	assert.Equal(t, 0, len(failures))
	assert.Equal(t, 0, p.digestCalls)
	assert.Equal(t, "neutral", summary.OverallSentiment)
}
