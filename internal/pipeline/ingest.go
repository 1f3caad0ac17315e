package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// Header names of the measurement columns, matched case-insensitively
const (
	ColumnDate          = "date"
	ColumnExecutionTime = "executiontime"
	ColumnValue         = "value"
)

// layouts tried for timestamps without a zone; fractional seconds are accepted by all of them
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseOptions configures ParseCSV
type ParseOptions struct {
	Delimiter rune
	// Location interprets timestamps that carry no zone. Nil means UTC.
	Location *time.Location
}

// DefaultParseOptions matches the measurement export format: semicolon separated, UTC wall clock
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Delimiter: ';', Location: time.UTC}
}

// ParseCSV reads a header row followed by measurement rows.
// An input without a header yields zero rows, which validation rejects.
// Reading stops after MaxRows+1 rows; the oversized batch is left for row_count to reject.
func ParseCSV(r io.Reader, opts ParseOptions) ([]*model.RawRow, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read CSV header"), errors.ErrParse)
	}

	columns, err := mapColumns(headers)
	if err != nil {
		return nil, err
	}

	var rows []*model.RawRow
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "CSV read error"), errors.ErrParse)
		}
		if isBlank(record) {
			continue
		}
		line, _ := csvReader.FieldPos(0)

		row, err := parseRow(record, columns, line, opts.Location)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if len(rows) > MaxRows {
			return rows, nil
		}
	}
}

type columnIndex struct {
	date, execTime, value int
}

func mapColumns(headers []string) (columnIndex, error) {
	idx := columnIndex{date: -1, execTime: -1, value: -1}
	for i, h := range headers {
		// Clean header names: trim whitespace, BOM and quotes
		clean := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		clean = strings.ToLower(strings.ReplaceAll(clean, `"`, ""))
		switch clean {
		case ColumnDate:
			idx.date = i
		case ColumnExecutionTime:
			idx.execTime = i
		case ColumnValue:
			idx.value = i
		}
	}

	var missing []string
	if idx.date < 0 {
		missing = append(missing, "Date")
	}
	if idx.execTime < 0 {
		missing = append(missing, "ExecutionTime")
	}
	if idx.value < 0 {
		missing = append(missing, "Value")
	}
	if len(missing) > 0 {
		return idx, errors.WithHint(
			errors.Parsef("CSV header is missing column(s): %s", strings.Join(missing, ", ")),
			"expected header Date;ExecutionTime;Value")
	}
	return idx, nil
}

func parseRow(record []string, columns columnIndex, line int, loc *time.Location) (*model.RawRow, error) {
	row := &model.RawRow{Line: line}

	dateCell := field(record, columns.date)
	if dateCell != "" {
		ts, err := ParseTimestamp(dateCell, loc)
		if err != nil {
			return nil, errors.Parsef("line %d: invalid Date %q", line, dateCell)
		}
		row.Timestamp = ts
	}

	execCell := field(record, columns.execTime)
	execTime, err := strconv.Atoi(execCell)
	if err != nil {
		return nil, errors.Parsef("line %d: invalid ExecutionTime %q", line, execCell)
	}
	row.ExecutionTime = execTime

	valueCell := field(record, columns.value)
	value, err := strconv.ParseFloat(valueCell, 64)
	if err != nil {
		return nil, errors.Parsef("line %d: invalid Value %q", line, valueCell)
	}
	row.Value = value

	return row, nil
}

// ParseTimestamp accepts RFC 3339 (zone honoured) or a zone-less layout read in loc.
// The result is normalized to UTC.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NormalizeTimestamp(t), nil
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return NormalizeTimestamp(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
