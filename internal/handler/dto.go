package handler

type RunStatsResponse struct {
	RawCollected   int `json:"raw_collected"`
	Kept           int `json:"kept"`
	DroppedURL     int `json:"dropped_url"`
	DroppedHash    int `json:"dropped_hash"`
	DroppedSimilar int `json:"dropped_similar"`
	AnalyzedOK     int `json:"analyzed_ok"`
	AnalyzedFailed int `json:"analyzed_failed"`
	FetchFailures  int `json:"fetch_failures"`
}

type RunResponse struct {
	RunID         string           `json:"run_id"`
	Status        string           `json:"status"`
	StartedAt     string           `json:"started_at"`
	FinishedAt    string           `json:"finished_at"`
	WindowStart   string           `json:"window_start"`
	WindowEnd     string           `json:"window_end"`
	LookbackHours int              `json:"lookback_hours"`
	Tickers       []string         `json:"tickers"`
	PerTickerCap  int              `json:"per_ticker_cap"`
	DryRun        bool             `json:"dry_run"`
	Stats         RunStatsResponse `json:"stats"`
}

type RunListResponse struct {
	Runs   []RunResponse `json:"runs"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type DecisionResponse struct {
	Seq          int64   `json:"seq"`
	Ticker       string  `json:"ticker"`
	Source       string  `json:"source"`
	CanonicalURL string  `json:"canonical_url"`
	ContentHash  string  `json:"content_hash"`
	Verdict      string  `json:"verdict"`
	SurvivorURL  string  `json:"survivor_url,omitempty"`
	Similarity   float64 `json:"similarity,omitempty"`
	DecidedAt    string  `json:"decided_at"`
}

type ResultResponse struct {
	Seq             int64    `json:"seq"`
	Ticker          string   `json:"ticker"`
	CanonicalURL    string   `json:"canonical_url"`
	Provider        string   `json:"provider"`
	Model           string   `json:"model"`
	EventType       string   `json:"event_type"`
	ImpactDirection string   `json:"impact_direction"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary"`
	KeyFacts        []string `json:"key_facts"`
	AnalyzedAt      string   `json:"analyzed_at"`
}

type SummaryResponse struct {
	Ticker           string   `json:"ticker"`
	CompanyName      string   `json:"company_name"`
	ItemCount        int      `json:"item_count"`
	OverallSentiment string   `json:"overall_sentiment"`
	Summary          string   `json:"summary"`
	KeyEvents        []string `json:"key_events"`
	ActionSuggestion string   `json:"action_suggestion,omitempty"`
	BullishCount     int      `json:"bullish_count"`
	BearishCount     int      `json:"bearish_count"`
	NeutralCount     int      `json:"neutral_count"`
}

type FailureResponse struct {
	Seq    int64  `json:"seq"`
	Stage  string `json:"stage"`
	Source string `json:"source,omitempty"`
	Ticker string `json:"ticker,omitempty"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error"`
}

type RunDetailResponse struct {
	RunResponse
	Decisions []DecisionResponse `json:"decisions"`
	Results   []ResultResponse   `json:"results"`
	Summaries []SummaryResponse  `json:"summaries"`
	Failures  []FailureResponse  `json:"failures"`
}

type WatchlistEntryResponse struct {
	Ticker      string   `json:"ticker"`
	CompanyName string   `json:"company_name"`
	Thesis      string   `json:"thesis"`
	RiskTags    []string `json:"risk_tags,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Sector      string   `json:"sector,omitempty"`
}

type WatchlistResponse struct {
	Entries []WatchlistEntryResponse `json:"entries"`
	Total   int                      `json:"total"`
}
