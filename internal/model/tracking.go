package model

import "time"

// IngestStats is a point-in-time snapshot of ingestion activity
type IngestStats struct {
	StartedAt        time.Time        `json:"startedAt"`
	BatchesAccepted  int64            `json:"batchesAccepted"`
	BatchesRejected  int64            `json:"batchesRejected"` // parse or validation failures
	BatchesFailed    int64            `json:"batchesFailed"`   // storage failures
	RecordsStored    int64            `json:"recordsStored"`
	EventsFailed     int64            `json:"eventsFailed"`
	RejectionsByRule map[string]int64 `json:"rejectionsByRule"`
	IngestDuration   time.Duration    `json:"ingestDuration"`
	LastError        string           `json:"lastError,omitempty"`
	LastErrorAt      *time.Time       `json:"lastErrorAt,omitempty"`
	LastFile         string           `json:"lastFile,omitempty"`
}
