package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

func sampleRecord() model.RunRecord {
	finished := time.Date(2026, 2, 25, 18, 0, 0, 0, time.UTC)
	return model.RunRecord{
		RunID:       "3f2a9c1e-0000-0000-0000-000000000000",
		Status:      model.RunStatusPartial,
		WindowStart: finished.Add(-24 * time.Hour),
		WindowEnd:   finished,
		FinishedAt:  finished,
		Stats:       model.RunStats{RawCollected: 5, Kept: 2, DroppedURL: 2, DroppedSimilar: 1, AnalyzedOK: 2},
		Results: []model.AnalysisResult{
			{Ticker: "NVDA", CanonicalURL: "https://news.com/nvda", EventType: "earnings", ImpactDirection: "bullish", Confidence: 0.9, Summary: "Beat on data center revenue."},
		},
		Summaries: []model.TickerSummary{
			{Ticker: "NVDA", CompanyName: "NVIDIA", ItemCount: 1, OverallSentiment: "bullish", Summary: "Strong quarter.", KeyEvents: []string{"Earnings beat"}, ActionSuggestion: "hold"},
		},
		Failures: []model.RunFailure{
			{Stage: model.FailureFetch, Source: "finnhub", Ticker: "TSM", Error: "status 401"},
		},
	}
}

func TestRender(t *testing.T) {
	md := Render(sampleRecord())

	assert.Equal(t, true, strings.Contains(md, "# Daily Digest 2026-02-25"))
	assert.Equal(t, true, strings.Contains(md, "Run `3f2a9c1e-0000-0000-0000-000000000000` | status: partial"))
	assert.Equal(t, true, strings.Contains(md, "## NVDA (NVIDIA)"))
	assert.Equal(t, true, strings.Contains(md, "**Sentiment:** bullish | **Suggested action:** hold"))
	assert.Equal(t, true, strings.Contains(md, "[earnings/bullish, confidence 0.90] Beat on data center revenue. ([source](https://news.com/nvda))"))
	assert.Equal(t, true, strings.Contains(md, "## Failures"))
	assert.Equal(t, true, strings.Contains(md, "source_fetch (finnhub) TSM: status 401"))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "digests")
	w := NewMarkdownWriter(dir)

	path, err := w.Write(sampleRecord())
	assert.Equal(t, nil, err)
	assert.Equal(t, filepath.Join(dir, "digest-2026-02-25-3f2a9c1e.md"), path)

	data, err := os.ReadFile(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.Contains(string(data), "# Daily Digest 2026-02-25"))
}
