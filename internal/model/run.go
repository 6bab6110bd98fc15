package model

import "time"

const (
	VerdictKeep        = "KEEP"
	VerdictDropURL     = "DROP_EXACT_URL"
	VerdictDropHash    = "DROP_EXACT_HASH"
	VerdictDropSimilar = "DROP_SIMILAR"
)

const (
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusAborted = "aborted"
)

const (
	FailureFetch    = "source_fetch"
	FailureDedup    = "dedup_history"
	FailureAnalysis = "analysis_failed"
)

// DedupDecision is the engine's verdict for one normalized item. When the
// verdict is a DROP, SurvivorURL points at the item it duplicated.
type DedupDecision struct {
	Seq          int64
	Ticker       string
	Source       string
	CanonicalURL string
	ContentHash  string
	Verdict      string
	SurvivorURL  string
	Similarity   float64
	DecidedAt    time.Time
}

// AnalysisResult holds the AI assessment for one KEEP item.
type AnalysisResult struct {
	Seq             int64
	Ticker          string
	CanonicalURL    string
	Provider        string
	Model           string
	EventType       string
	ImpactDirection string
	Confidence      float64
	Summary         string
	KeyFacts        []string
	AnalyzedAt      time.Time
}

// TickerSummary is the per-ticker aggregate produced at the end of a run.
type TickerSummary struct {
	Ticker           string
	CompanyName      string
	ItemCount        int
	OverallSentiment string
	Summary          string
	KeyEvents        []string
	ActionSuggestion string
	BullishCount     int
	BearishCount     int
	NeutralCount     int
}

// RunFailure records an isolated failure that did not abort the run.
type RunFailure struct {
	Seq    int64
	Stage  string // FailureFetch, FailureDedup or FailureAnalysis
	Source string
	Ticker string
	URL    string
	Error  string
}

// RunParams are the caller-supplied knobs for one run.
type RunParams struct {
	LookbackHours int
	Tickers       []string // empty = whole watchlist
	PerTickerCap  int      // 0 = unlimited
	DryRun        bool     // collect and dedup only, skip analysis
}

// RunStats counts what happened at each stage.
type RunStats struct {
	RawCollected   int
	Kept           int
	DroppedURL     int
	DroppedHash    int
	DroppedSimilar int
	AnalyzedOK     int
	AnalyzedFailed int
	FetchFailures  int
}

// RunRecord is the unit of traceability: everything one run decided and
// produced, in sequence order. Append-only while the run is live, immutable
// once finalized.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Params      RunParams
	Status      string
	Decisions   []DedupDecision
	Results     []AnalysisResult
	Summaries   []TickerSummary
	Failures    []RunFailure
	Stats       RunStats
	WindowStart time.Time
	WindowEnd   time.Time
}
