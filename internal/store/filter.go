package store

import (
	"strings"

	"go-measure-pipeline/internal/model"
)

// BuildSummaryFilter translates filter into a WHERE clause with bound
// arguments. Every set bound is inclusive and the conditions are ANDed.
// An empty filter yields an empty clause.
func BuildSummaryFilter(f model.SummaryFilter, dialect Dialect) (string, []any) {
	if f.IsEmpty() {
		return "", nil
	}

	var conds []string
	var args []any

	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if f.FileName != "" {
		add("file_name = ?", f.FileName)
	}
	if f.MinStartDate != nil {
		add("min_date >= ?", f.MinStartDate.UTC())
	}
	if f.MaxStartDate != nil {
		add("min_date <= ?", f.MaxStartDate.UTC())
	}
	if f.MinAverageValue != nil {
		add("average_value >= ?", *f.MinAverageValue)
	}
	if f.MaxAverageValue != nil {
		add("average_value <= ?", *f.MaxAverageValue)
	}
	if f.MinAverageExecutionTime != nil {
		add("average_execution_time >= ?", *f.MinAverageExecutionTime)
	}
	if f.MaxAverageExecutionTime != nil {
		add("average_execution_time <= ?", *f.MaxAverageExecutionTime)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return Rebind(dialect, " WHERE "+strings.Join(conds, " AND ")), args
}
