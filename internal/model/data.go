package model

import "time"

// IngestResult represents the outcome of one accepted batch
type IngestResult struct {
	FileName    string        `json:"fileName"`
	RecordCount int           `json:"recordCount"`
	Summary     Summary       `json:"summary"`
	Duration    time.Duration `json:"duration"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Format      string    `json:"format"` // "csv", "json", "parquet"
	Path        string    `json:"path"`
	RecordCount int       `json:"recordCount"`
	Bytes       int64     `json:"bytes"`
	Timestamp   time.Time `json:"timestamp"`
}
