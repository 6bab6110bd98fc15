// Package runtrack assigns run identifiers and keeps the append-only audit
// log of everything a run decided, in a total order independent of worker
// scheduling.
package runtrack

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// Tracker owns one run's record. Recording methods are safe for
// concurrent use; every event gets the next monotonic sequence number.
// After Finalize the record is immutable and further records are rejected.
type Tracker struct {
	mu        sync.Mutex
	record    model.RunRecord
	seq       int64
	finalized bool
}

// NewRun starts a new run with a fresh identifier.
func NewRun(params model.RunParams) *Tracker {
	now := time.Now().UTC()
	return &Tracker{
		record: model.RunRecord{
			RunID:       uuid.NewString(),
			StartedAt:   now,
			Params:      params,
			WindowEnd:   now,
			WindowStart: now.Add(-time.Duration(params.LookbackHours) * time.Hour),
		},
	}
}

func (t *Tracker) RunID() string {
	return t.record.RunID
}

func (t *Tracker) WindowStart() time.Time {
	return t.record.WindowStart
}

func (t *Tracker) Params() model.RunParams {
	return t.record.Params
}

// RecordDecision appends a dedup decision and bumps the stage counters.
func (t *Tracker) RecordDecision(d model.DedupDecision) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return fmt.Errorf("run %s already finalized", t.record.RunID)
	}

	t.seq++
	d.Seq = t.seq
	t.record.Decisions = append(t.record.Decisions, d)

	switch d.Verdict {
	case model.VerdictKeep:
		t.record.Stats.Kept++
	case model.VerdictDropURL:
		t.record.Stats.DroppedURL++
	case model.VerdictDropHash:
		t.record.Stats.DroppedHash++
	case model.VerdictDropSimilar:
		t.record.Stats.DroppedSimilar++
	}
	return nil
}

// RecordResult appends a successful analysis result.
func (t *Tracker) RecordResult(r model.AnalysisResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return fmt.Errorf("run %s already finalized", t.record.RunID)
	}

	t.seq++
	r.Seq = t.seq
	t.record.Results = append(t.record.Results, r)
	t.record.Stats.AnalyzedOK++
	return nil
}

// RecordFailure appends an isolated failure (fetch or analysis).
func (t *Tracker) RecordFailure(f model.RunFailure) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return fmt.Errorf("run %s already finalized", t.record.RunID)
	}

	t.seq++
	f.Seq = t.seq
	t.record.Failures = append(t.record.Failures, f)

	switch f.Stage {
	case model.FailureFetch:
		t.record.Stats.FetchFailures++
	case model.FailureAnalysis:
		t.record.Stats.AnalyzedFailed++
	}
	return nil
}

// RecordSummary attaches a per-ticker summary.
func (t *Tracker) RecordSummary(s model.TickerSummary) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return fmt.Errorf("run %s already finalized", t.record.RunID)
	}
	t.record.Summaries = append(t.record.Summaries, s)
	return nil
}

// SetRawCollected records how many raw items collection produced.
func (t *Tracker) SetRawCollected(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record.Stats.RawCollected = n
}

// Finalize seals the record and returns it. The run status degrades to
// partial when any stage recorded a failure. Finalize is idempotent.
func (t *Tracker) Finalize() model.RunRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finalized {
		t.finalized = true
		t.record.FinishedAt = time.Now().UTC()
		if len(t.record.Failures) > 0 {
			t.record.Status = model.RunStatusPartial
		} else {
			t.record.Status = model.RunStatusSuccess
		}
	}
	return t.record
}

// Abort seals the record with aborted status (fatal configuration error).
func (t *Tracker) Abort(cause error) model.RunRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finalized {
		t.finalized = true
		t.record.FinishedAt = time.Now().UTC()
		t.record.Status = model.RunStatusAborted
		if cause != nil {
			t.seq++
			t.record.Failures = append(t.record.Failures, model.RunFailure{
				Seq:   t.seq,
				Stage: "config",
				Error: cause.Error(),
			})
		}
	}
	return t.record
}
