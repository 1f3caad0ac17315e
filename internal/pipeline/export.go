package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/pkg/utils"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// SummaryQuerier is the read side the exporter needs
type SummaryQuerier interface {
	QuerySummaries(ctx context.Context, filter model.SummaryFilter) ([]model.Summary, error)
}

// summaryRow is the flat parquet layout of a summary
type summaryRow struct {
	FileName             string  `parquet:"file_name"`
	TimeDeltaSeconds     int64   `parquet:"time_delta_seconds"`
	MinDate              int64   `parquet:"min_date_unix_ms"`
	AverageExecutionTime float64 `parquet:"average_execution_time"`
	AverageValue         float64 `parquet:"average_value"`
	MedianValue          float64 `parquet:"median_value"`
	MinValue             float64 `parquet:"min_value"`
	MaxValue             float64 `parquet:"max_value"`
}

func toRow(s model.Summary) summaryRow {
	return summaryRow{
		FileName:             s.FileName,
		TimeDeltaSeconds:     s.TimeDeltaSeconds,
		MinDate:              s.MinDate.UTC().UnixMilli(),
		AverageExecutionTime: s.AverageExecutionTime,
		AverageValue:         s.AverageValue,
		MedianValue:          s.MedianValue,
		MinValue:             s.MinValue,
		MaxValue:             s.MaxValue,
	}
}

// summary converts a parquet row back to a model summary
func (r summaryRow) summary() model.Summary {
	return model.Summary{
		FileName:             r.FileName,
		TimeDeltaSeconds:     r.TimeDeltaSeconds,
		MinDate:              time.UnixMilli(r.MinDate).UTC(),
		AverageExecutionTime: r.AverageExecutionTime,
		AverageValue:         r.AverageValue,
		MedianValue:          r.MedianValue,
		MinValue:             r.MinValue,
		MaxValue:             r.MaxValue,
	}
}

var csvHeader = []string{
	"fileName", "timeDelta", "minDate", "averageExecutionTime",
	"averageValue", "medianValue", "minValue", "maxValue",
}

// Exporter writes filtered summaries to files or streams
type Exporter struct {
	source SummaryQuerier
	output *utils.OutputManager
	log    *zap.SugaredLogger
}

// NewExporter creates an exporter writing files under output's base directory
func NewExporter(source SummaryQuerier, output *utils.OutputManager, log *zap.SugaredLogger) *Exporter {
	return &Exporter{
		source: source,
		output: output,
		log:    logger.Or(log).With("component", "export"),
	}
}

// IsExportFormat reports whether format is supported
func IsExportFormat(format string) bool {
	switch format {
	case FormatCSV, FormatJSON, FormatParquet:
		return true
	}
	return false
}

// ExportToFile queries summaries and writes them to a new timestamped file
func (e *Exporter) ExportToFile(ctx context.Context, format string, filter model.SummaryFilter) (*model.ExportResult, error) {
	if !IsExportFormat(format) {
		return nil, errors.InvalidRequestf("unsupported export format %q", format)
	}
	summaries, err := e.source.QuerySummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	path, err := e.output.ExportFilePath("summaries", format)
	if err != nil {
		return nil, errors.Wrap(err, "prepare export path")
	}

	if format == FormatParquet {
		err = writeVerifiedParquet(path, summaries)
	} else {
		err = writeToFile(path, func(w io.Writer) error {
			return WriteSummaries(w, format, summaries)
		})
	}
	if err != nil {
		e.log.Errorw("Export failed", "format", format, "path", path, "error", err)
		return nil, errors.Wrapf(err, "export %s", format)
	}

	size, err := e.output.GetFileSize(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat export file")
	}

	e.log.Infow("Export complete", "format", format, "path", path, "summaries", len(summaries), "bytes", size)
	return &model.ExportResult{
		Format:      e.output.GetFileType(path),
		Path:        path,
		RecordCount: len(summaries),
		Bytes:       size,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Stream queries summaries and writes them to w
func (e *Exporter) Stream(ctx context.Context, w io.Writer, format string, filter model.SummaryFilter) (int, error) {
	if !IsExportFormat(format) {
		return 0, errors.InvalidRequestf("unsupported export format %q", format)
	}
	summaries, err := e.source.QuerySummaries(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := WriteSummaries(w, format, summaries); err != nil {
		return 0, errors.Wrapf(err, "stream %s", format)
	}
	return len(summaries), nil
}

// WriteSummaries encodes summaries in the given format
func WriteSummaries(w io.Writer, format string, summaries []model.Summary) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, summaries)
	case FormatJSON:
		return writeJSON(w, summaries)
	case FormatParquet:
		rows := make([]summaryRow, len(summaries))
		for i, s := range summaries {
			rows[i] = toRow(s)
		}
		return parquet.Write(w, rows)
	default:
		return errors.InvalidRequestf("unsupported export format %q", format)
	}
}

// WriteSummariesParquetFile writes summaries as a parquet file at path
func WriteSummariesParquetFile(path string, summaries []model.Summary) error {
	rows := make([]summaryRow, len(summaries))
	for i, s := range summaries {
		rows[i] = toRow(s)
	}
	return parquet.WriteFile(path, rows)
}

// writeVerifiedParquet writes the file and reads it back, so a truncated
// export is reported instead of handed out
func writeVerifiedParquet(path string, summaries []model.Summary) error {
	if err := WriteSummariesParquetFile(path, summaries); err != nil {
		return err
	}
	got, err := ReadSummariesParquetFile(path)
	if err != nil {
		return err
	}
	if len(got) != len(summaries) {
		return errors.Newf("parquet %s holds %d rows, wrote %d", path, len(got), len(summaries))
	}
	return nil
}

// ReadSummariesParquetFile reads a file written by WriteSummariesParquetFile
func ReadSummariesParquetFile(path string) ([]model.Summary, error) {
	rows, err := parquet.ReadFile[summaryRow](path)
	if err != nil {
		return nil, errors.Wrapf(err, "read parquet %s", path)
	}
	out := make([]model.Summary, len(rows))
	for i, r := range rows {
		out[i] = r.summary()
	}
	return out, nil
}

func writeCSV(w io.Writer, summaries []model.Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, s := range summaries {
		row := []string{
			s.FileName,
			strconv.FormatInt(s.TimeDeltaSeconds, 10),
			s.MinDate.UTC().Format(time.RFC3339Nano),
			formatFloat(s.AverageExecutionTime),
			formatFloat(s.AverageValue),
			formatFloat(s.MedianValue),
			formatFloat(s.MinValue),
			formatFloat(s.MaxValue),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, summaries []model.Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"export_info": map[string]interface{}{
			"exported_at":  time.Now().UTC(),
			"record_count": len(summaries),
			"export_type":  "summaries",
		},
		"data": summaries,
	})
}

func writeToFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
