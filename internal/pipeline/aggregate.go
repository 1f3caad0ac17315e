package pipeline

import (
	"sort"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// Summarize computes the per-file statistics for one batch.
//
// Two passes: the first accumulates sums, extrema and the time range; the second
// sorts a copy of the values for the median. Memory is one float64 per record on
// top of the batch itself, bounded by MaxRows.
func Summarize(fileName string, records []model.Record) (model.Summary, error) {
	n := len(records)
	if n == 0 {
		return model.Summary{}, errors.AssertionFailedf("summarize %s: empty batch", fileName)
	}

	acc := newAccumulator(records[0])
	for _, rec := range records[1:] {
		acc.add(rec)
	}

	values := make([]float64, n)
	for i, rec := range records {
		values[i] = rec.Value
	}

	return model.Summary{
		FileName:             fileName,
		TimeDeltaSeconds:     int64(acc.latest.Sub(acc.earliest) / time.Second),
		MinDate:              acc.earliest,
		AverageExecutionTime: acc.sumExecTime / float64(n),
		AverageValue:         acc.sumValue / float64(n),
		MedianValue:          Median(values),
		MinValue:             acc.minValue,
		MaxValue:             acc.maxValue,
	}, nil
}

// accumulator holds the single-pass statistics
type accumulator struct {
	earliest, latest   time.Time
	sumExecTime        float64
	sumValue           float64
	minValue, maxValue float64
}

func newAccumulator(first model.Record) *accumulator {
	return &accumulator{
		earliest:    first.Timestamp,
		latest:      first.Timestamp,
		sumExecTime: float64(first.ExecutionTime),
		sumValue:    first.Value,
		minValue:    first.Value,
		maxValue:    first.Value,
	}
}

func (a *accumulator) add(rec model.Record) {
	if rec.Timestamp.Before(a.earliest) {
		a.earliest = rec.Timestamp
	}
	if rec.Timestamp.After(a.latest) {
		a.latest = rec.Timestamp
	}
	a.sumExecTime += float64(rec.ExecutionTime)
	a.sumValue += rec.Value
	if rec.Value < a.minValue {
		a.minValue = rec.Value
	}
	if rec.Value > a.maxValue {
		a.maxValue = rec.Value
	}
}

// Median sorts values in place and returns the middle element, or the mean of
// the two middle elements for an even count. Returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}
