package pipeline

import (
	"fmt"
	"math"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// Batch bounds
const (
	MinRows = 1
	MaxRows = 10000
)

// EpochFloor is the earliest accepted measurement time (inclusive)
var EpochFloor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Rule names reported in ValidationError.Rule
const (
	RuleRowCount              = "row_count"
	RuleMissingRow            = "missing_row"
	RuleMissingTimestamp      = "missing_timestamp"
	RuleFutureTimestamp       = "future_timestamp"
	RuleTimestampBeforeFloor  = "timestamp_before_floor"
	RuleNegativeExecutionTime = "negative_execution_time"
	RuleNegativeValue         = "negative_value"
	RuleInvalidValue          = "invalid_value"
)

// ValidationError reports the first rule a batch broke. The whole batch is rejected.
type ValidationError struct {
	Rule   string `json:"rule"`
	Row    int    `json:"row"`  // 0-based index in the batch, -1 for batch-level rules
	Line   int    `json:"line"` // CSV line when known
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("batch rejected (%s): %s", e.Rule, e.Reason)
	}
	if e.Line > 0 {
		return fmt.Sprintf("batch rejected (%s) at line %d: %s", e.Rule, e.Line, e.Reason)
	}
	return fmt.Sprintf("batch rejected (%s) at row %d: %s", e.Rule, e.Row, e.Reason)
}

// Is makes every ValidationError match errors.ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrValidation
}

// Validator checks a whole batch; any broken rule rejects all rows
type Validator struct {
	// Now returns the current time; rows strictly after it are rejected
	Now func() time.Time
}

// NewValidator creates a validator that uses the wall clock
func NewValidator() *Validator {
	return &Validator{Now: time.Now}
}

// Validate returns nil when every rule holds, otherwise a *ValidationError
func (v *Validator) Validate(rows []*model.RawRow) error {
	n := len(rows)
	if n < MinRows || n > MaxRows {
		return &ValidationError{
			Rule:   RuleRowCount,
			Row:    -1,
			Reason: fmt.Sprintf("batch has %d rows, want %d..%d", n, MinRows, MaxRows),
		}
	}

	now := v.now()
	for i, row := range rows {
		if err := validateRow(i, row, now); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) now() time.Time {
	if v == nil || v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// validateRow applies the per-row rules in a fixed order
func validateRow(i int, row *model.RawRow, now time.Time) error {
	if row == nil {
		return &ValidationError{Rule: RuleMissingRow, Row: i, Reason: "row is missing"}
	}

	fail := func(rule, reason string) error {
		return &ValidationError{Rule: rule, Row: i, Line: row.Line, Reason: reason}
	}

	ts := row.Timestamp
	switch {
	case ts.IsZero():
		return fail(RuleMissingTimestamp, "Date is empty")
	case ts.After(now):
		return fail(RuleFutureTimestamp, fmt.Sprintf("Date %s is in the future", ts.UTC().Format(time.RFC3339)))
	case ts.Before(EpochFloor):
		return fail(RuleTimestampBeforeFloor, fmt.Sprintf("Date %s is before %s", ts.UTC().Format(time.RFC3339), EpochFloor.Format("2006-01-02")))
	}

	if row.ExecutionTime < 0 {
		return fail(RuleNegativeExecutionTime, fmt.Sprintf("ExecutionTime %d < 0", row.ExecutionTime))
	}
	if math.IsNaN(row.Value) || math.IsInf(row.Value, 0) {
		return fail(RuleInvalidValue, fmt.Sprintf("Value %g is not a finite number", row.Value))
	}
	if row.Value < 0 {
		return fail(RuleNegativeValue, fmt.Sprintf("Value %g < 0", row.Value))
	}
	return nil
}
