package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

type OpenAIProvider struct {
	client    *openai.Client
	model     openai.ChatModel
	modelName string
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:    &client,
		model:     openai.ChatModelGPT4oMini,
		modelName: "gpt-4o-mini",
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.modelName }

func (p *OpenAIProvider) AnalyzeItem(ctx context.Context, entry model.WatchlistEntry, item model.NormalizedItem) (*ItemAnalysis, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisSystemPrompt),
			openai.UserMessage(analysisUserPrompt(entry, item)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

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

func (p *OpenAIProvider) SummarizeTicker(ctx context.Context, entry model.WatchlistEntry, results []model.AnalysisResult) (*TickerDigest, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(digestSystemPrompt),
			openai.UserMessage(digestUserPrompt(entry, results)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

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
