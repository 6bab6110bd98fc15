package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

type AnthropicProvider struct {
	client    *anthropic.Client
	model     anthropic.Model
	modelName string
}

func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{
		client:    &client,
		model:     anthropic.ModelClaude3_5HaikuLatest,
		modelName: "claude-3-5-haiku-latest",
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.modelName }

func (p *AnthropicProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return cleanJSONResponse(resp.Content[0].Text), nil
}

func (p *AnthropicProvider) AnalyzeItem(ctx context.Context, entry model.WatchlistEntry, item model.NormalizedItem) (*ItemAnalysis, error) {
	content, err := p.complete(ctx, analysisSystemPrompt, analysisUserPrompt(entry, item))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		EventType       string   `json:"event_type"`
		ImpactDirection string   `json:"impact_direction"`
		Confidence      float64  `json:"confidence"`
		Summary         string   `json:"summary"`
		KeyFacts        []string `json:"key_facts"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	result := &ItemAnalysis{
		EventType:       parsed.EventType,
		ImpactDirection: parsed.ImpactDirection,
		Confidence:      parsed.Confidence,
		Summary:         parsed.Summary,
		KeyFacts:        parsed.KeyFacts,
	}
	normalizeAnalysis(result)
	return result, nil
}

func (p *AnthropicProvider) SummarizeTicker(ctx context.Context, entry model.WatchlistEntry, results []model.AnalysisResult) (*TickerDigest, error) {
	content, err := p.complete(ctx, digestSystemPrompt, digestUserPrompt(entry, results))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		OverallSentiment string   `json:"overall_sentiment"`
		Summary          string   `json:"summary"`
		KeyEvents        []string `json:"key_events"`
		ActionSuggestion string   `json:"action_suggestion"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	return &TickerDigest{
		OverallSentiment: parsed.OverallSentiment,
		Summary:          parsed.Summary,
		KeyEvents:        parsed.KeyEvents,
		ActionSuggestion: parsed.ActionSuggestion,
	}, nil
}
