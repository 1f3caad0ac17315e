package store

import (
	"context"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

const insertRecordSQL = `INSERT INTO records (id, file_name, recorded_at, execution_time, value) VALUES (?, ?, ?, ?, ?)`

// AppendRecords inserts the whole batch in one transaction
func (s *DB) AppendRecords(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage(err, "begin record batch")
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertRecordSQL))
	if err != nil {
		tx.Rollback()
		return errors.Storage(err, "prepare record insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.FileName, rec.Timestamp.UTC(), rec.ExecutionTime, rec.Value); err != nil {
			tx.Rollback()
			return errors.Storage(errors.Wrapf(err, "record %s", rec.ID), "insert record")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage(err, "commit record batch")
	}

	s.log.Debugw("Records appended", "file", records[0].FileName, "count", len(records))
	return nil
}

// RecentRecords returns up to limit records for fileName, newest first
func (s *DB) RecentRecords(ctx context.Context, fileName string, limit int) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, file_name, recorded_at, execution_time, value
		FROM records
		WHERE file_name = ?
		ORDER BY recorded_at DESC, id
		LIMIT ?`), fileName, limit)
	if err != nil {
		return nil, errors.Storage(err, "query recent records")
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.Timestamp, &rec.ExecutionTime, &rec.Value); err != nil {
			return nil, errors.Storage(err, "scan record")
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "iterate records")
	}
	return records, nil
}

// CountRecords returns the number of stored records for fileName, or all records when empty
func (s *DB) CountRecords(ctx context.Context, fileName string) (int64, error) {
	query := "SELECT COUNT(*) FROM records"
	var args []any
	if fileName != "" {
		query += " WHERE file_name = ?"
		args = append(args, fileName)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, errors.Storage(err, "count records")
	}
	return n, nil
}
