package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// Settings holds everything the pipeline reads from the environment.
// Load returns an error only for genuinely fatal gaps; optional sources are
// simply disabled when their key is missing.
type Settings struct {
	DatabaseURL     string
	RedisURL        string
	FinnhubAPIKey   string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AIProvider      string // "openai" or "anthropic"
	SECUserAgent    string
	WatchlistPath   string

	SimilarityThreshold float64
	HistoryWindow       time.Duration
	FetchWorkers        int
	AnalysisWorkers     int
}

const (
	defaultWatchlistPath       = "data/watchlist.yaml"
	defaultSimilarityThreshold = 0.85
	defaultHistoryWindow       = 72 * time.Hour
	defaultFetchWorkers        = 4
	defaultAnalysisWorkers     = 2
)

func Load() (*Settings, error) {
	s := &Settings{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		FinnhubAPIKey:   os.Getenv("FINNHUB_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AIProvider:      os.Getenv("AI_PROVIDER"),
		SECUserAgent:    os.Getenv("SEC_USER_AGENT"),
		WatchlistPath:   os.Getenv("WATCHLIST_PATH"),

		SimilarityThreshold: defaultSimilarityThreshold,
		HistoryWindow:       defaultHistoryWindow,
		FetchWorkers:        defaultFetchWorkers,
		AnalysisWorkers:     defaultAnalysisWorkers,
	}

	if s.WatchlistPath == "" {
		s.WatchlistPath = defaultWatchlistPath
	}
	if s.AIProvider == "" {
		s.AIProvider = "openai"
	}
	if s.SECUserAgent == "" {
		s.SECUserAgent = "Financial-NewsFeed/1.0 (contact@example.com)"
	}

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			return nil, fmt.Errorf("invalid SIMILARITY_THRESHOLD %q", v)
		}
		s.SimilarityThreshold = f
	}
	if v := os.Getenv("HISTORY_WINDOW_HOURS"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid HISTORY_WINDOW_HOURS %q", v)
		}
		s.HistoryWindow = time.Duration(h) * time.Hour
	}
	if v := os.Getenv("FETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid FETCH_WORKERS %q", v)
		}
		s.FetchWorkers = n
	}
	if v := os.Getenv("ANALYSIS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ANALYSIS_WORKERS %q", v)
		}
		s.AnalysisWorkers = n
	}

	switch s.AIProvider {
	case "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s", s.AIProvider)
	}

	return s, nil
}

// Watchlist is the top-level structure of watchlist.yaml.
type Watchlist struct {
	Entries []model.WatchlistEntry `yaml:"watchlist"`
}

// LoadWatchlist reads and validates the watchlist file. The order of
// entries is preserved; tickers must be unique.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parsing watchlist: %w", err)
	}

	if err := wl.Validate(); err != nil {
		return nil, err
	}

	return &wl, nil
}

func (w *Watchlist) Validate() error {
	if len(w.Entries) == 0 {
		return fmt.Errorf("watchlist has no entries")
	}

	seen := make(map[string]bool, len(w.Entries))
	for i, e := range w.Entries {
		if e.Ticker == "" {
			return fmt.Errorf("watchlist entry %d has no ticker", i)
		}
		if seen[e.Ticker] {
			return fmt.Errorf("duplicate watchlist ticker: %s", e.Ticker)
		}
		seen[e.Ticker] = true
	}
	return nil
}

// Resolve returns the entries matching the requested tickers, in watchlist
// order. An empty filter selects the whole watchlist. Unknown tickers are
// an error: the run must not silently monitor nothing.
func (w *Watchlist) Resolve(tickers []string) ([]model.WatchlistEntry, error) {
	if len(tickers) == 0 {
		return w.Entries, nil
	}

	byTicker := make(map[string]model.WatchlistEntry, len(w.Entries))
	for _, e := range w.Entries {
		byTicker[e.Ticker] = e
	}

	var out []model.WatchlistEntry
	for _, t := range tickers {
		e, ok := byTicker[t]
		if !ok {
			return nil, fmt.Errorf("ticker %s not in watchlist", t)
		}
		out = append(out, e)
	}
	return out, nil
}
