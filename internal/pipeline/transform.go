package pipeline

import (
	"time"

	"github.com/google/uuid"

	"go-measure-pipeline/internal/model"
)

// NormalizeTimestamp maps any instant onto the canonical UTC representation.
// Zone-less inputs must already have been read in their intended location.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC()
}

// NewRecordID returns a fresh random record id
func NewRecordID() string {
	return uuid.New().String()
}

// NormalizeBatch turns validated rows into records: fresh id, UTC timestamp, source file tag.
// Row order is preserved.
func NormalizeBatch(fileName string, rows []*model.RawRow, newID func() string) []model.Record {
	if newID == nil {
		newID = NewRecordID
	}
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.Record{
			ID:            newID(),
			Timestamp:     NormalizeTimestamp(row.Timestamp),
			ExecutionTime: row.ExecutionTime,
			Value:         row.Value,
			FileName:      fileName,
		})
	}
	return records
}
