package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-measure-pipeline/internal/errors"
)

func TestIngestTrackerSnapshotIsACopy(t *testing.T) {
	tr := NewIngestTracker()
	tr.Accepted("a.csv", 10, time.Second)
	tr.Rejected("b.csv", &ValidationError{Rule: RuleFutureTimestamp})
	tr.Failed("c.csv", errors.New("db gone"))
	tr.EventFailed()

	snap := tr.Snapshot()
	assert.Equal(t, int64(1), snap.BatchesAccepted)
	assert.Equal(t, int64(10), snap.RecordsStored)
	assert.Equal(t, int64(1), snap.BatchesRejected)
	assert.Equal(t, int64(1), snap.BatchesFailed)
	assert.Equal(t, int64(1), snap.EventsFailed)
	assert.Equal(t, "c.csv", snap.LastFile)
	assert.Equal(t, "db gone", snap.LastError)
	assert.NotNil(t, snap.LastErrorAt)

	snap.RejectionsByRule[RuleFutureTimestamp] = 42
	assert.Equal(t, int64(1), tr.Snapshot().RejectionsByRule[RuleFutureTimestamp])
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *IngestTracker
	tr.Accepted("a.csv", 1, 0)
	tr.Rejected("a.csv", errors.New("x"))
	tr.Failed("a.csv", errors.New("x"))
	tr.EventFailed()
}
