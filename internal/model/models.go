package model

import "time"

// RawRow is one parsed input row before validation.
// A zero Timestamp means the date cell was empty.
type RawRow struct {
	Line          int       `json:"line"` // 1-based CSV line, header included
	Timestamp     time.Time `json:"date"`
	ExecutionTime int       `json:"executionTime"` // seconds
	Value         float64   `json:"value"`
}

// Record represents a single persisted measurement
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"date"` // always UTC
	ExecutionTime int       `json:"executionTime"`
	Value         float64   `json:"value"`
	FileName      string    `json:"fileName"`
}

// Summary is the per-file aggregate, keyed by FileName.
// Every field is recomputed from the latest accepted batch for that file.
type Summary struct {
	FileName             string    `json:"fileName"`
	TimeDeltaSeconds     int64     `json:"timeDelta"`
	MinDate              time.Time `json:"minDate"`
	AverageExecutionTime float64   `json:"averageExecutionTime"`
	AverageValue         float64   `json:"averageValue"`
	MedianValue          float64   `json:"medianValue"`
	MinValue             float64   `json:"minValue"`
	MaxValue             float64   `json:"maxValue"`
}

// SummaryFilter holds optional constraints for summary lookups.
// Empty FileName and nil bounds impose no constraint; set bounds are inclusive and ANDed.
type SummaryFilter struct {
	FileName                string     `json:"fileName,omitempty"`
	MinStartDate            *time.Time `json:"minStartDate,omitempty"`
	MaxStartDate            *time.Time `json:"maxStartDate,omitempty"`
	MinAverageValue         *float64   `json:"minAverageValue,omitempty"`
	MaxAverageValue         *float64   `json:"maxAverageValue,omitempty"`
	MinAverageExecutionTime *float64   `json:"minAverageExecutionTime,omitempty"`
	MaxAverageExecutionTime *float64   `json:"maxAverageExecutionTime,omitempty"`
}

// IsEmpty reports whether the filter has no constraints
func (f SummaryFilter) IsEmpty() bool {
	return f.FileName == "" &&
		f.MinStartDate == nil && f.MaxStartDate == nil &&
		f.MinAverageValue == nil && f.MaxAverageValue == nil &&
		f.MinAverageExecutionTime == nil && f.MaxAverageExecutionTime == nil
}

// Matches reports whether s satisfies every constraint in f
func (f SummaryFilter) Matches(s Summary) bool {
	if f.FileName != "" && s.FileName != f.FileName {
		return false
	}
	if f.MinStartDate != nil && s.MinDate.Before(*f.MinStartDate) {
		return false
	}
	if f.MaxStartDate != nil && s.MinDate.After(*f.MaxStartDate) {
		return false
	}
	if f.MinAverageValue != nil && s.AverageValue < *f.MinAverageValue {
		return false
	}
	if f.MaxAverageValue != nil && s.AverageValue > *f.MaxAverageValue {
		return false
	}
	if f.MinAverageExecutionTime != nil && s.AverageExecutionTime < *f.MinAverageExecutionTime {
		return false
	}
	if f.MaxAverageExecutionTime != nil && s.AverageExecutionTime > *f.MaxAverageExecutionTime {
		return false
	}
	return true
}
