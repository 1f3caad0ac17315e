package store

import (
	"context"
	"database/sql"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

const summaryColumns = `file_name, time_delta, min_date, average_execution_time, average_value, median_value, min_value, max_value`

// upsertSummarySQL overwrites every statistic in one statement, so concurrent
// writers for the same file never interleave a read and a write.
const upsertSummarySQL = `
	INSERT INTO summaries (` + summaryColumns + `, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (file_name) DO UPDATE SET
		time_delta = excluded.time_delta,
		min_date = excluded.min_date,
		average_execution_time = excluded.average_execution_time,
		average_value = excluded.average_value,
		median_value = excluded.median_value,
		min_value = excluded.min_value,
		max_value = excluded.max_value,
		updated_at = excluded.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (model.Summary, error) {
	var s model.Summary
	err := row.Scan(
		&s.FileName,
		&s.TimeDeltaSeconds,
		&s.MinDate,
		&s.AverageExecutionTime,
		&s.AverageValue,
		&s.MedianValue,
		&s.MinValue,
		&s.MaxValue,
	)
	s.MinDate = s.MinDate.UTC()
	return s, err
}

// GetSummary returns the summary for fileName or an ErrNotFound error
func (s *DB) GetSummary(ctx context.Context, fileName string) (*model.Summary, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+summaryColumns+` FROM summaries WHERE file_name = ?`), fileName)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, errors.Mark(errors.Newf("no summary for %s", fileName), errors.ErrNotFound)
	}
	if err != nil {
		return nil, errors.Storage(err, "get summary")
	}
	return &summary, nil
}

// UpsertSummary inserts the summary or replaces all of its statistics
func (s *DB) UpsertSummary(ctx context.Context, summary model.Summary) error {
	_, err := s.db.ExecContext(ctx, s.rebind(upsertSummarySQL),
		summary.FileName,
		summary.TimeDeltaSeconds,
		summary.MinDate.UTC(),
		summary.AverageExecutionTime,
		summary.AverageValue,
		summary.MedianValue,
		summary.MinValue,
		summary.MaxValue,
		time.Now().UTC(),
	)
	if err != nil {
		return errors.Storage(errors.Wrapf(err, "file %s", summary.FileName), "upsert summary")
	}
	s.log.Debugw("Summary upserted", "file", summary.FileName)
	return nil
}

// QuerySummaries returns summaries matching every set bound, ordered by file name
func (s *DB) QuerySummaries(ctx context.Context, filter model.SummaryFilter) ([]model.Summary, error) {
	where, args := BuildSummaryFilter(filter, s.dialect)

	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+` FROM summaries`+where+` ORDER BY file_name`, args...)
	if err != nil {
		return nil, errors.Storage(err, "query summaries")
	}
	defer rows.Close()

	summaries := []model.Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, errors.Storage(err, "scan summary")
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "iterate summaries")
	}
	return summaries, nil
}
