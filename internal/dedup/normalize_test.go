package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips utm params",
			input: "https://example.com/story?utm_source=rss&utm_medium=feed&id=7",
			want:  "https://example.com/story?id=7",
		},
		{
			name:  "lowercases scheme and host",
			input: "HTTPS://News.Example.COM/Story",
			want:  "https://news.example.com/Story",
		},
		{
			name:  "removes trailing slash",
			input: "https://example.com/story/",
			want:  "https://example.com/story",
		},
		{
			name:  "collapses duplicate slashes",
			input: "https://example.com//a//b",
			want:  "https://example.com/a/b",
		},
		{
			name:  "drops fragment",
			input: "https://example.com/story#section",
			want:  "https://example.com/story",
		},
		{
			name:  "strips fbclid but keeps real params",
			input: "https://example.com/s?fbclid=xyz&page=2",
			want:  "https://example.com/s?page=2",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.input))
		})
	}
}

func TestNormalize_HashStableAcrossFormatting(t *testing.T) {
	now := time.Now()
	a := Normalize(model.RawItem{
		Title: "NVIDIA  Reports Record Revenue!",
		Body:  "The company announced results.",
		URL:   "https://example.com/a",
	}, now)
	b := Normalize(model.RawItem{
		Title: "nvidia reports record revenue",
		Body:  "  The   company announced results.  ",
		URL:   "https://other.com/b",
	}, now)

	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestNormalize_HashIgnoresTrailingBody(t *testing.T) {
	now := time.Now()
	lede := make([]byte, 600)
	for i := range lede {
		lede[i] = 'a'
	}

	a := Normalize(model.RawItem{Title: "t", Body: string(lede) + " syndicated footer one"}, now)
	b := Normalize(model.RawItem{Title: "t", Body: string(lede) + " different footer entirely"}, now)

	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestNormalize_HashTruncatesOnRuneBoundary(t *testing.T) {
	now := time.Now()
	lede := strings.Repeat("界", 500)

	// Multi-byte bodies differing only past the rune cutoff hash the same.
	a := Normalize(model.RawItem{Title: "t", Body: lede + "甲乙丙"}, now)
	b := Normalize(model.RawItem{Title: "t", Body: lede + "丁戊己"}, now)
	assert.Equal(t, a.ContentHash, b.ContentHash)

	// A difference inside the cutoff still changes the hash.
	c := Normalize(model.RawItem{Title: "t", Body: strings.Repeat("界", 499) + "甲"}, now)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
}

func TestNormalize_MissingTimestamp(t *testing.T) {
	now := time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)

	item := Normalize(model.RawItem{Title: "t", URL: "https://example.com"}, now)
	assert.Equal(t, true, item.LowConfidence)
	assert.Equal(t, now, item.PublishedAt)

	published := time.Date(2026, 2, 25, 8, 0, 0, 0, time.FixedZone("EST", -5*3600))
	item = Normalize(model.RawItem{Title: "t", PublishedAt: published}, now)
	assert.Equal(t, false, item.LowConfidence)
	assert.Equal(t, time.UTC, item.PublishedAt.Location())
	assert.Equal(t, published.UTC(), item.PublishedAt)
}
