package dedup

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{
			name: "identical texts",
			a:    "nvidia reports record datacenter revenue for q4",
			b:    "nvidia reports record datacenter revenue for q4",
			min:  1, max: 1,
		},
		{
			name: "unrelated texts",
			a:    "nvidia reports record datacenter revenue for q4",
			b:    "tsmc warns of slower smartphone demand in taiwan",
			min:  0, max: 0,
		},
		{
			name: "near duplicate republication",
			a:    "nvidia reports record datacenter revenue for q4 beating estimates",
			b:    "nvidia reports record datacenter revenue for q4 beating all estimates",
			min:  0.5, max: 0.99,
		},
		{
			name: "short headline fallback to unigrams",
			a:    "nvidia earnings",
			b:    "nvidia earnings",
			min:  1, max: 1,
		},
		{
			name: "empty text",
			a:    "",
			b:    "anything",
			min:  0, max: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity() = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := "nvidia reports record datacenter revenue for q4"
	b := "nvidia posts record datacenter revenue in q4"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity is not symmetric")
	}
}
