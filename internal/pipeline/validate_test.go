package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedValidator() *Validator {
	return &Validator{Now: func() time.Time { return fixedNow }}
}

func rowsOf(n int) []*model.RawRow {
	rows := make([]*model.RawRow, n)
	for i := range rows {
		rows[i] = &model.RawRow{
			Line:          i + 2,
			Timestamp:     fixedNow.Add(-time.Duration(i+1) * time.Minute),
			ExecutionTime: 1,
			Value:         1,
		}
	}
	return rows
}

func TestValidateRowCount(t *testing.T) {
	v := fixedValidator()

	assert.NoError(t, v.Validate(rowsOf(1)))
	assert.NoError(t, v.Validate(rowsOf(MaxRows)))

	for _, n := range []int{0, MaxRows + 1} {
		err := v.Validate(rowsOf(n))
		require.Error(t, err)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, RuleRowCount, verr.Rule)
		assert.True(t, errors.IsValidationError(err))
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.RawRow)
		rule   string
	}{
		{"zero timestamp", func(r *model.RawRow) { r.Timestamp = time.Time{} }, RuleMissingTimestamp},
		{"future timestamp", func(r *model.RawRow) { r.Timestamp = fixedNow.Add(time.Nanosecond) }, RuleFutureTimestamp},
		{"before floor", func(r *model.RawRow) { r.Timestamp = EpochFloor.Add(-time.Nanosecond) }, RuleTimestampBeforeFloor},
		{"negative execution time", func(r *model.RawRow) { r.ExecutionTime = -1 }, RuleNegativeExecutionTime},
		{"negative value", func(r *model.RawRow) { r.Value = -0.001 }, RuleNegativeValue},
		{"nan value", func(r *model.RawRow) { r.Value = math.NaN() }, RuleInvalidValue},
		{"infinite value", func(r *model.RawRow) { r.Value = math.Inf(1) }, RuleInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := rowsOf(3)
			tt.mutate(rows[2])

			err := fixedValidator().Validate(rows)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.rule, verr.Rule)
			assert.Equal(t, 2, verr.Row)
			assert.Equal(t, 4, verr.Line)
		})
	}
}

func TestValidateMissingRow(t *testing.T) {
	rows := rowsOf(2)
	rows[1] = nil

	err := fixedValidator().Validate(rows)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, RuleMissingRow, verr.Rule)
}

func TestValidateBoundariesAccepted(t *testing.T) {
	rows := rowsOf(2)
	rows[0].Timestamp = EpochFloor
	rows[1].Timestamp = fixedNow
	rows[1].ExecutionTime = 0
	rows[1].Value = 0

	assert.NoError(t, fixedValidator().Validate(rows))
}

func TestValidateNilValidatorUsesWallClock(t *testing.T) {
	var v *Validator
	assert.NoError(t, v.Validate(rowsOf(1)))
}
