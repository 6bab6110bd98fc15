package model

import "time"

const (
	CredibilityHigh   = "high"
	CredibilityMedium = "medium"

	SourceTypeNews   = "news"
	SourceTypeFiling = "filing"
)

// WatchlistEntry is one monitored security, loaded once per run and
// immutable for its duration.
type WatchlistEntry struct {
	Ticker      string   `yaml:"ticker"`
	CompanyName string   `yaml:"company_name"`
	Thesis      string   `yaml:"thesis"`
	RiskTags    []string `yaml:"risk_tags"`
	Priority    int      `yaml:"priority"`
	Sector      string   `yaml:"sector"`
	Keywords    []string `yaml:"keywords"`
}

// RawItem is a fetched news item or filing exactly as a collector produced
// it. Never mutated after creation.
type RawItem struct {
	Source      string
	SourceType  string
	Ticker      string
	ExternalID  string
	Title       string
	Body        string
	URL         string
	PublishedAt time.Time
	Credibility string
}

// NormalizedItem is the comparable form of a RawItem produced by the
// normalizer.
type NormalizedItem struct {
	Raw            RawItem
	CanonicalURL   string
	ContentHash    string
	PublishedAt    time.Time // UTC
	LowConfidence  bool      // true when the source reported no timestamp
	NormalizedText string    // normalized title + body prefix, similarity input
}
