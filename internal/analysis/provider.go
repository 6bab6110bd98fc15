// Package analysis turns deduplicated items into structured per-item
// analyses and per-ticker digests using an LLM provider.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

const analysisSystemPrompt = `You are a buy-side equity analyst. You will receive one news item or SEC filing about a company on the user's watchlist, together with the user's investment thesis for that company.

Classify the item and assess its impact on the thesis.

Output as JSON only, no other text:
{
  "event_type": "one of: earnings, guidance, regulatory, contract, product, accident, macro, rumor, other",
  "impact_direction": "one of: bullish, bearish, neutral",
  "confidence": 0.0-1.0 how confident you are in the direction,
  "summary": "2-3 factual sentences on what happened and why it matters to the thesis",
  "key_facts": ["concrete numbers, dates and names from the item"]
}`

const digestSystemPrompt = `You are a buy-side equity analyst writing a daily note. You will receive the structured analyses produced today for one watchlist company, together with the user's investment thesis.

Synthesize them into a single digest entry.

Output as JSON only, no other text:
{
  "overall_sentiment": "one of: bullish, bearish, neutral, mixed",
  "summary": "one paragraph tying today's events to the thesis",
  "key_events": ["the 1-3 events that matter most"],
  "action_suggestion": "one of: hold, add, trim, review, none"
}`

// ItemAnalysis is the structured verdict for a single item.
type ItemAnalysis struct {
	EventType       string
	ImpactDirection string
	Confidence      float64
	Summary         string
	KeyFacts        []string
}

// TickerDigest is the synthesized daily view for one ticker.
type TickerDigest struct {
	OverallSentiment string
	Summary          string
	KeyEvents        []string
	ActionSuggestion string
}

// Provider is an LLM backend. Implementations must be safe for
// concurrent use; rate limiting and retries happen in the caller.
type Provider interface {
	Name() string
	Model() string
	AnalyzeItem(ctx context.Context, entry model.WatchlistEntry, item model.NormalizedItem) (*ItemAnalysis, error)
	SummarizeTicker(ctx context.Context, entry model.WatchlistEntry, results []model.AnalysisResult) (*TickerDigest, error)
}

// NewProvider builds the configured backend.
func NewProvider(name, openaiKey, anthropicKey string) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(openaiKey), nil
	case "anthropic":
		return NewAnthropicProvider(anthropicKey), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

var impactDirections = map[string]bool{"bullish": true, "bearish": true, "neutral": true}

// normalizeAnalysis coerces model output into the fixed vocabulary.
func normalizeAnalysis(a *ItemAnalysis) {
	a.ImpactDirection = strings.ToLower(strings.TrimSpace(a.ImpactDirection))
	if !impactDirections[a.ImpactDirection] {
		a.ImpactDirection = "neutral"
	}
	a.EventType = strings.ToLower(strings.TrimSpace(a.EventType))
	if a.EventType == "" {
		a.EventType = "other"
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
}

func analysisUserPrompt(entry model.WatchlistEntry, item model.NormalizedItem) string {
	var sb strings.Builder
	sb.WriteString("Company: " + entry.CompanyName + " (" + entry.Ticker + ")\n")
	sb.WriteString("Thesis: " + entry.Thesis + "\n")
	if len(entry.RiskTags) > 0 {
		sb.WriteString("Risk tags: " + strings.Join(entry.RiskTags, ", ") + "\n")
	}
	sb.WriteString("\nSource: " + item.Raw.Source + " (" + item.Raw.SourceType + ")\n")
	sb.WriteString("Title: " + item.Raw.Title + "\n")
	sb.WriteString("Body: " + item.Raw.Body + "\n")
	sb.WriteString("URL: " + item.CanonicalURL + "\n")
	return sb.String()
}

func digestUserPrompt(entry model.WatchlistEntry, results []model.AnalysisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s (%s)\n", entry.CompanyName, entry.Ticker)
	fmt.Fprintf(&sb, "Thesis: %s\n\n", entry.Thesis)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%s, %s] %s\n", i+1, r.EventType, r.ImpactDirection, r.Summary)
	}
	return sb.String()
}
