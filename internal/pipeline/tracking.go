package pipeline

import (
	"sync"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// IngestTracker accumulates ingestion counters across all batches handled by
// one process. Safe for concurrent use.
type IngestTracker struct {
	mu    sync.RWMutex
	stats model.IngestStats
}

// NewIngestTracker creates a tracker whose uptime starts now
func NewIngestTracker() *IngestTracker {
	return &IngestTracker{
		stats: model.IngestStats{
			StartedAt:        time.Now(),
			RejectionsByRule: make(map[string]int64),
		},
	}
}

// Accepted records a stored batch
func (t *IngestTracker) Accepted(fileName string, records int, took time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.BatchesAccepted++
	t.stats.RecordsStored += int64(records)
	t.stats.IngestDuration += took
	t.stats.LastFile = fileName
}

// Rejected records a batch that failed parsing or validation
func (t *IngestTracker) Rejected(fileName string, err error) {
	if t == nil {
		return
	}
	rule := "parse"
	var verr *ValidationError
	if errors.As(err, &verr) {
		rule = verr.Rule
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.BatchesRejected++
	t.stats.RejectionsByRule[rule]++
	t.stats.LastFile = fileName
	t.setLastErrorLocked(err)
}

// Failed records a batch that passed validation but could not be stored
func (t *IngestTracker) Failed(fileName string, err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.BatchesFailed++
	t.stats.LastFile = fileName
	t.setLastErrorLocked(err)
}

// EventFailed records a summary event that could not be published
func (t *IngestTracker) EventFailed() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.EventsFailed++
}

func (t *IngestTracker) setLastErrorLocked(err error) {
	if err == nil {
		return
	}
	now := time.Now()
	t.stats.LastError = err.Error()
	t.stats.LastErrorAt = &now
}

// Snapshot returns a copy of the current counters
func (t *IngestTracker) Snapshot() model.IngestStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.stats
	out.RejectionsByRule = make(map[string]int64, len(t.stats.RejectionsByRule))
	for rule, n := range t.stats.RejectionsByRule {
		out.RejectionsByRule[rule] = n
	}
	if t.stats.LastErrorAt != nil {
		at := *t.stats.LastErrorAt
		out.LastErrorAt = &at
	}
	return out
}
