package analysis

import "testing"

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("openai", "key", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.Model() == "" {
		t.Errorf("openai provider reported name %q model %q", p.Name(), p.Model())
	}

	p, err = NewProvider("anthropic", "", "key")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("anthropic provider reported name %q", p.Name())
	}
	if p.Model() != "claude-3-5-haiku-latest" {
		t.Errorf("anthropic provider reported model %q", p.Model())
	}

	if _, err := NewProvider("gemini", "", ""); err == nil {
		t.Error("expected error for unknown provider name")
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON unchanged",
			input: `{"event_type":"earnings"}`,
			want:  `{"event_type":"earnings"}`,
		},
		{
			name:  "strips json fenced block",
			input: "```json\n{\"event_type\":\"earnings\"}\n```",
			want:  `{"event_type":"earnings"}`,
		},
		{
			name:  "strips plain fenced block",
			input: "```\n{\"event_type\":\"earnings\"}\n```",
			want:  `{"event_type":"earnings"}`,
		},
		{
			name:  "drops prose around JSON",
			input: "Here is the analysis:\n{\"event_type\":\"earnings\"}\nLet me know if you need more.",
			want:  `{"event_type":"earnings"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanJSONResponse(tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeAnalysis(t *testing.T) {
	tests := []struct {
		name          string
		in            ItemAnalysis
		wantDirection string
		wantEvent     string
		wantConf      float64
	}{
		{
			name:          "valid passthrough",
			in:            ItemAnalysis{EventType: "earnings", ImpactDirection: "bullish", Confidence: 0.8},
			wantDirection: "bullish",
			wantEvent:     "earnings",
			wantConf:      0.8,
		},
		{
			name:          "unknown direction becomes neutral",
			in:            ItemAnalysis{EventType: "earnings", ImpactDirection: "very positive", Confidence: 0.8},
			wantDirection: "neutral",
			wantEvent:     "earnings",
			wantConf:      0.8,
		},
		{
			name:          "uppercase direction is accepted",
			in:            ItemAnalysis{EventType: "legal", ImpactDirection: "Bearish", Confidence: 0.5},
			wantDirection: "bearish",
			wantEvent:     "legal",
			wantConf:      0.5,
		},
		{
			name:          "confidence clamped and event defaulted",
			in:            ItemAnalysis{ImpactDirection: "neutral", Confidence: 1.7},
			wantDirection: "neutral",
			wantEvent:     "other",
			wantConf:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.in
			normalizeAnalysis(&a)
			if a.ImpactDirection != tt.wantDirection {
				t.Errorf("direction: got %q, want %q", a.ImpactDirection, tt.wantDirection)
			}
			if a.EventType != tt.wantEvent {
				t.Errorf("event: got %q, want %q", a.EventType, tt.wantEvent)
			}
			if a.Confidence != tt.wantConf {
				t.Errorf("confidence: got %v, want %v", a.Confidence, tt.wantConf)
			}
		})
	}
}
