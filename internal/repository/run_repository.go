package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun persists a finalized run and all its detail rows in one
// transaction.
func (r *RunRepository) SaveRun(record *model.RunRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO pipeline_run(run_id, started_at, finished_at, status,
			lookback_hours, tickers, per_ticker_cap, dry_run,
			window_start, window_end,
			raw_collected, kept, dropped_url, dropped_hash, dropped_similar,
			analyzed_ok, analyzed_failed, fetch_failures)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, record.RunID, record.StartedAt, record.FinishedAt, record.Status,
		record.Params.LookbackHours, pq.Array(record.Params.Tickers), record.Params.PerTickerCap, record.Params.DryRun,
		record.WindowStart, record.WindowEnd,
		record.Stats.RawCollected, record.Stats.Kept, record.Stats.DroppedURL, record.Stats.DroppedHash, record.Stats.DroppedSimilar,
		record.Stats.AnalyzedOK, record.Stats.AnalyzedFailed, record.Stats.FetchFailures)
	if err != nil {
		return err
	}

	for _, d := range record.Decisions {
		_, err = tx.Exec(`
			INSERT INTO run_decision(run_id, seq, ticker, source, canonical_url, content_hash, verdict, survivor_url, similarity, decided_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, record.RunID, d.Seq, d.Ticker, d.Source, d.CanonicalURL, d.ContentHash, d.Verdict, d.SurvivorURL, d.Similarity, d.DecidedAt)
		if err != nil {
			return err
		}
	}

	for _, res := range record.Results {
		_, err = tx.Exec(`
			INSERT INTO run_result(run_id, seq, ticker, canonical_url, provider, model, event_type, impact_direction, confidence, summary, key_facts, analyzed_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, record.RunID, res.Seq, res.Ticker, res.CanonicalURL, res.Provider, res.Model, res.EventType, res.ImpactDirection, res.Confidence, res.Summary, pq.Array(res.KeyFacts), res.AnalyzedAt)
		if err != nil {
			return err
		}
	}

	for _, s := range record.Summaries {
		_, err = tx.Exec(`
			INSERT INTO run_summary(run_id, ticker, company_name, item_count, overall_sentiment, summary, key_events, action_suggestion, bullish_count, bearish_count, neutral_count)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, record.RunID, s.Ticker, s.CompanyName, s.ItemCount, s.OverallSentiment, s.Summary, pq.Array(s.KeyEvents), s.ActionSuggestion, s.BullishCount, s.BearishCount, s.NeutralCount)
		if err != nil {
			return err
		}
	}

	for _, f := range record.Failures {
		_, err = tx.Exec(`
			INSERT INTO run_failure(run_id, seq, stage, source, ticker, url, error_message)
			VALUES($1, $2, $3, $4, $5, $6, $7)
		`, record.RunID, f.Seq, f.Stage, f.Source, f.Ticker, f.URL, f.Error)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRuns lists run headers, most recent first. Detail rows are not
// loaded.
func (r *RunRepository) GetRuns(limit, offset int) ([]model.RunRecord, error) {
	rows, err := r.db.Query(`
		SELECT run_id, started_at, finished_at, status,
			lookback_hours, tickers, per_ticker_cap, dry_run,
			window_start, window_end,
			raw_collected, kept, dropped_url, dropped_hash, dropped_similar,
			analyzed_ok, analyzed_failed, fetch_failures
		FROM pipeline_run
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *RunRepository) GetRunTotal() (int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM pipeline_run
	`).Scan(&total)
	return total, err
}

// GetRunByID loads one run with all its detail rows. Returns nil when
// the run does not exist.
func (r *RunRepository) GetRunByID(runID string) (*model.RunRecord, error) {
	row := r.db.QueryRow(`
		SELECT run_id, started_at, finished_at, status,
			lookback_hours, tickers, per_ticker_cap, dry_run,
			window_start, window_end,
			raw_collected, kept, dropped_url, dropped_hash, dropped_similar,
			analyzed_ok, analyzed_failed, fetch_failures
		FROM pipeline_run
		WHERE run_id = $1
	`, runID)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadDecisions(rec); err != nil {
		return nil, err
	}
	if err := r.loadResults(rec); err != nil {
		return nil, err
	}
	if err := r.loadSummaries(rec); err != nil {
		return nil, err
	}
	if err := r.loadFailures(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.RunRecord, error) {
	var rec model.RunRecord
	err := row.Scan(&rec.RunID, &rec.StartedAt, &rec.FinishedAt, &rec.Status,
		&rec.Params.LookbackHours, pq.Array(&rec.Params.Tickers), &rec.Params.PerTickerCap, &rec.Params.DryRun,
		&rec.WindowStart, &rec.WindowEnd,
		&rec.Stats.RawCollected, &rec.Stats.Kept, &rec.Stats.DroppedURL, &rec.Stats.DroppedHash, &rec.Stats.DroppedSimilar,
		&rec.Stats.AnalyzedOK, &rec.Stats.AnalyzedFailed, &rec.Stats.FetchFailures)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RunRepository) loadDecisions(rec *model.RunRecord) error {
	rows, err := r.db.Query(`
		SELECT seq, ticker, source, canonical_url, content_hash, verdict, survivor_url, similarity, decided_at
		FROM run_decision
		WHERE run_id = $1
		ORDER BY seq
	`, rec.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d model.DedupDecision
		if err := rows.Scan(&d.Seq, &d.Ticker, &d.Source, &d.CanonicalURL, &d.ContentHash, &d.Verdict, &d.SurvivorURL, &d.Similarity, &d.DecidedAt); err != nil {
			return err
		}
		rec.Decisions = append(rec.Decisions, d)
	}
	return rows.Err()
}

func (r *RunRepository) loadResults(rec *model.RunRecord) error {
	rows, err := r.db.Query(`
		SELECT seq, ticker, canonical_url, provider, model, event_type, impact_direction, confidence, summary, key_facts, analyzed_at
		FROM run_result
		WHERE run_id = $1
		ORDER BY seq
	`, rec.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var res model.AnalysisResult
		if err := rows.Scan(&res.Seq, &res.Ticker, &res.CanonicalURL, &res.Provider, &res.Model, &res.EventType, &res.ImpactDirection, &res.Confidence, &res.Summary, pq.Array(&res.KeyFacts), &res.AnalyzedAt); err != nil {
			return err
		}
		rec.Results = append(rec.Results, res)
	}
	return rows.Err()
}

func (r *RunRepository) loadSummaries(rec *model.RunRecord) error {
	rows, err := r.db.Query(`
		SELECT ticker, company_name, item_count, overall_sentiment, summary, key_events, action_suggestion, bullish_count, bearish_count, neutral_count
		FROM run_summary
		WHERE run_id = $1
		ORDER BY ticker
	`, rec.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.TickerSummary
		if err := rows.Scan(&s.Ticker, &s.CompanyName, &s.ItemCount, &s.OverallSentiment, &s.Summary, pq.Array(&s.KeyEvents), &s.ActionSuggestion, &s.BullishCount, &s.BearishCount, &s.NeutralCount); err != nil {
			return err
		}
		rec.Summaries = append(rec.Summaries, s)
	}
	return rows.Err()
}

func (r *RunRepository) loadFailures(rec *model.RunRecord) error {
	rows, err := r.db.Query(`
		SELECT seq, stage, source, ticker, url, error_message
		FROM run_failure
		WHERE run_id = $1
		ORDER BY seq
	`, rec.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var f model.RunFailure
		if err := rows.Scan(&f.Seq, &f.Stage, &f.Source, &f.Ticker, &f.URL, &f.Error); err != nil {
			return err
		}
		rec.Failures = append(rec.Failures, f)
	}
	return rows.Err()
}
