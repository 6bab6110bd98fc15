// Package output renders finalized runs into the daily digest.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// MarkdownWriter renders run digests to a directory, one file per run.
type MarkdownWriter struct {
	dir string
}

func NewMarkdownWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{dir: dir}
}

// Write renders the record and saves it under the digest directory.
// Returns the path of the written file.
func (w *MarkdownWriter) Write(record model.RunRecord) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create digest dir: %w", err)
	}

	name := fmt.Sprintf("digest-%s-%s.md", record.FinishedAt.Format("2006-01-02"), shortID(record.RunID))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(Render(record)), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return path, nil
}

// Render produces the markdown digest for a finalized run.
func Render(record model.RunRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Daily Digest %s\n\n", record.FinishedAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Run `%s` | status: %s | window: %s to %s\n\n",
		record.RunID, record.Status,
		record.WindowStart.Format("2006-01-02 15:04 MST"),
		record.WindowEnd.Format("2006-01-02 15:04 MST"))

	s := record.Stats
	fmt.Fprintf(&sb, "Collected %d items, kept %d (dropped: %d url, %d hash, %d similar), analyzed %d.\n\n",
		s.RawCollected, s.Kept, s.DroppedURL, s.DroppedHash, s.DroppedSimilar, s.AnalyzedOK)

	resultsByTicker := make(map[string][]model.AnalysisResult)
	for _, r := range record.Results {
		resultsByTicker[r.Ticker] = append(resultsByTicker[r.Ticker], r)
	}

	for _, sum := range record.Summaries {
		fmt.Fprintf(&sb, "## %s (%s)\n\n", sum.Ticker, sum.CompanyName)
		fmt.Fprintf(&sb, "**Sentiment:** %s", sum.OverallSentiment)
		if sum.ActionSuggestion != "" {
			fmt.Fprintf(&sb, " | **Suggested action:** %s", sum.ActionSuggestion)
		}
		sb.WriteString("\n\n")
		if sum.Summary != "" {
			sb.WriteString(sum.Summary + "\n\n")
		}
		for _, ev := range sum.KeyEvents {
			fmt.Fprintf(&sb, "- %s\n", ev)
		}
		if len(sum.KeyEvents) > 0 {
			sb.WriteString("\n")
		}

		for _, r := range resultsByTicker[sum.Ticker] {
			fmt.Fprintf(&sb, "- [%s/%s, confidence %.2f] %s ([source](%s))\n",
				r.EventType, r.ImpactDirection, r.Confidence, r.Summary, r.CanonicalURL)
		}
		if len(resultsByTicker[sum.Ticker]) > 0 {
			sb.WriteString("\n")
		}
	}

	if len(record.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, f := range record.Failures {
			fmt.Fprintf(&sb, "- %s", f.Stage)
			if f.Source != "" {
				fmt.Fprintf(&sb, " (%s)", f.Source)
			}
			if f.Ticker != "" {
				fmt.Fprintf(&sb, " %s", f.Ticker)
			}
			fmt.Fprintf(&sb, ": %s\n", f.Error)
		}
	}

	return sb.String()
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
