package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/config"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/output"
)

type RunStore interface {
	GetRuns(limit, offset int) ([]model.RunRecord, error)
	GetRunTotal() (int, error)
	GetRunByID(runID string) (*model.RunRecord, error)
}

type RunHandler struct {
	repository RunStore
	watchlist  *config.Watchlist
}

func NewRunHandler(repository RunStore, watchlist *config.Watchlist) *RunHandler {
	return &RunHandler{repository: repository, watchlist: watchlist}
}

func (h *RunHandler) GetRuns(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	runs, err := h.repository.GetRuns(limit, offset)
	if err != nil {
		slog.Error("error fetching runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.GetRunTotal()
	if err != nil {
		slog.Error("error fetching run total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var runRes []RunResponse
	for _, r := range runs {
		runRes = append(runRes, toRunResponse(r))
	}

	c.JSON(http.StatusOK, RunListResponse{
		Runs:   runRes,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")

	run, err := h.repository.GetRunByID(runID)
	if err != nil {
		slog.Error("error fetching run", "error", err, "run_id", runID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	res := RunDetailResponse{RunResponse: toRunResponse(*run)}
	for _, d := range run.Decisions {
		res.Decisions = append(res.Decisions, DecisionResponse{
			Seq:          d.Seq,
			Ticker:       d.Ticker,
			Source:       d.Source,
			CanonicalURL: d.CanonicalURL,
			ContentHash:  d.ContentHash,
			Verdict:      d.Verdict,
			SurvivorURL:  d.SurvivorURL,
			Similarity:   d.Similarity,
			DecidedAt:    d.DecidedAt.Format(time.RFC3339),
		})
	}
	for _, r := range run.Results {
		res.Results = append(res.Results, ResultResponse{
			Seq:             r.Seq,
			Ticker:          r.Ticker,
			CanonicalURL:    r.CanonicalURL,
			Provider:        r.Provider,
			Model:           r.Model,
			EventType:       r.EventType,
			ImpactDirection: r.ImpactDirection,
			Confidence:      r.Confidence,
			Summary:         r.Summary,
			KeyFacts:        r.KeyFacts,
			AnalyzedAt:      r.AnalyzedAt.Format(time.RFC3339),
		})
	}
	for _, s := range run.Summaries {
		res.Summaries = append(res.Summaries, SummaryResponse{
			Ticker:           s.Ticker,
			CompanyName:      s.CompanyName,
			ItemCount:        s.ItemCount,
			OverallSentiment: s.OverallSentiment,
			Summary:          s.Summary,
			KeyEvents:        s.KeyEvents,
			ActionSuggestion: s.ActionSuggestion,
			BullishCount:     s.BullishCount,
			BearishCount:     s.BearishCount,
			NeutralCount:     s.NeutralCount,
		})
	}
	for _, f := range run.Failures {
		res.Failures = append(res.Failures, FailureResponse{
			Seq:    f.Seq,
			Stage:  f.Stage,
			Source: f.Source,
			Ticker: f.Ticker,
			URL:    f.URL,
			Error:  f.Error,
		})
	}

	c.JSON(http.StatusOK, res)
}

func (h *RunHandler) GetRunDigest(c *gin.Context) {
	runID := c.Param("id")

	run, err := h.repository.GetRunByID(runID)
	if err != nil {
		slog.Error("error fetching run", "error", err, "run_id", runID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(output.Render(*run)))
}

func (h *RunHandler) GetWatchlist(c *gin.Context) {
	var entries []WatchlistEntryResponse
	for _, e := range h.watchlist.Entries {
		entries = append(entries, WatchlistEntryResponse{
			Ticker:      e.Ticker,
			CompanyName: e.CompanyName,
			Thesis:      e.Thesis,
			RiskTags:    e.RiskTags,
			Priority:    e.Priority,
			Sector:      e.Sector,
		})
	}

	c.JSON(http.StatusOK, WatchlistResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

func (h *RunHandler) GetHealth(c *gin.Context) {
	_, err := h.repository.GetRunTotal()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func toRunResponse(r model.RunRecord) RunResponse {
	return RunResponse{
		RunID:         r.RunID,
		Status:        r.Status,
		StartedAt:     r.StartedAt.Format(time.RFC3339),
		FinishedAt:    r.FinishedAt.Format(time.RFC3339),
		WindowStart:   r.WindowStart.Format(time.RFC3339),
		WindowEnd:     r.WindowEnd.Format(time.RFC3339),
		LookbackHours: r.Params.LookbackHours,
		Tickers:       r.Params.Tickers,
		PerTickerCap:  r.Params.PerTickerCap,
		DryRun:        r.Params.DryRun,
		Stats: RunStatsResponse{
			RawCollected:   r.Stats.RawCollected,
			Kept:           r.Stats.Kept,
			DroppedURL:     r.Stats.DroppedURL,
			DroppedHash:    r.Stats.DroppedHash,
			DroppedSimilar: r.Stats.DroppedSimilar,
			AnalyzedOK:     r.Stats.AnalyzedOK,
			AnalyzedFailed: r.Stats.AnalyzedFailed,
			FetchFailures:  r.Stats.FetchFailures,
		},
	}
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	param := c.Query(name)

	if param == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(param)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", param, "error", err)
		return defaultValue
	}

	return parsed
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		slog.Warn("invalid query parameter, using default", "param", "offset", "value", offset, "default", 0)
		return 0
	}
	return offset
}
