package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/internal/pipeline"
	"go-measure-pipeline/pkg/utils"
)

// parseFilter reads the summary filter query parameters
func (h *Handler) parseFilter(q url.Values) (model.SummaryFilter, error) {
	f := model.SummaryFilter{FileName: q.Get("fileName")}
	var err error

	times := []struct {
		name string
		dst  **time.Time
	}{
		{"minStartDate", &f.MinStartDate},
		{"maxStartDate", &f.MaxStartDate},
	}
	for _, p := range times {
		if *p.dst, err = utils.ParseOptionalTime(q.Get(p.name), h.opts.Location); err != nil {
			return f, errors.InvalidRequestf("%s: %v", p.name, err)
		}
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"minAverageValue", &f.MinAverageValue},
		{"maxAverageValue", &f.MaxAverageValue},
		{"minAverageExecutionTime", &f.MinAverageExecutionTime},
		{"maxAverageExecutionTime", &f.MaxAverageExecutionTime},
	}
	for _, p := range floats {
		if *p.dst, err = utils.ParseOptionalFloat(q.Get(p.name)); err != nil {
			return f, errors.InvalidRequestf("%s: %v", p.name, err)
		}
	}
	return f, nil
}

// ListSummaries returns the summaries matching every supplied filter
// @Summary Query file summaries
// @Description All filters are optional, inclusive and combined with AND. No match returns an empty list.
// @Tags summaries
// @Produce json
// @Param fileName query string false "Exact file name"
// @Param minStartDate query string false "Lower bound on minDate (RFC 3339 or 2006-01-02 15:04:05)"
// @Param maxStartDate query string false "Upper bound on minDate"
// @Param minAverageValue query number false "Lower bound on averageValue"
// @Param maxAverageValue query number false "Upper bound on averageValue"
// @Param minAverageExecutionTime query number false "Lower bound on averageExecutionTime"
// @Param maxAverageExecutionTime query number false "Upper bound on averageExecutionTime"
// @Success 200 {array} model.Summary
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Router /summaries [get]
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	summaries, err := h.pipeline.QuerySummaries(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetFileSummary returns one file's summary
// @Summary Get a file summary
// @Tags summaries
// @Produce json
// @Param name path string true "File name"
// @Success 200 {object} model.Summary
// @Failure 404 {object} ErrorResponse "No summary for this file"
// @Router /files/{name}/summary [get]
func (h *Handler) GetFileSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.pipeline.GetSummary(r.Context(), fileNameSegment(r.URL.Path))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetRecentRecords returns the newest records of one file
// @Summary Most recent records of a file
// @Description Records ordered by date, newest first.
// @Tags records
// @Produce json
// @Param name path string true "File name"
// @Param limit query int false "Maximum records (default and cap 10)"
// @Success 200 {array} model.Record
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Router /files/{name}/records [get]
func (h *Handler) GetRecentRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.ParsePositiveInt(r.URL.Query().Get("limit"), h.opts.RecentLimit)
	if err != nil {
		h.writeError(w, errors.InvalidRequestf("limit: %v", err))
		return
	}
	if limit > h.opts.RecentLimit {
		limit = h.opts.RecentLimit
	}
	records, err := h.pipeline.RecentRecordsN(r.Context(), fileNameSegment(r.URL.Path), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

var exportContentTypes = map[string]string{
	pipeline.FormatCSV:     "text/csv",
	pipeline.FormatJSON:    "application/json",
	pipeline.FormatParquet: "application/vnd.apache.parquet",
}

// ExportSummaries downloads the filtered summaries
// @Summary Export summaries
// @Tags summaries
// @Produce text/csv
// @Produce json
// @Produce application/octet-stream
// @Param format query string false "csv (default), json or parquet"
// @Param fileName query string false "Exact file name"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse "Invalid format or filter"
// @Router /summaries/export [get]
func (h *Handler) ExportSummaries(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatCSV
	}
	if !pipeline.IsExportFormat(format) {
		h.writeError(w, errors.InvalidRequestf("unsupported export format %q", format))
		return
	}
	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}

	// parquet needs the full payload before the first byte is written
	if format == pipeline.FormatParquet {
		var buf bytes.Buffer
		if _, err := h.exporter.Stream(r.Context(), &buf, format, filter); err != nil {
			h.writeError(w, err)
			return
		}
		h.setDownloadHeaders(w, format)
		w.Write(buf.Bytes())
		return
	}

	h.setDownloadHeaders(w, format)
	if _, err := h.exporter.Stream(r.Context(), w, format, filter); err != nil {
		h.log.Errorw("Export stream failed", "format", format, "error", err)
	}
}

func (h *Handler) setDownloadHeaders(w http.ResponseWriter, format string) {
	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"summaries.%s\"", format))
}

// StatsResponse is the body of GET /stats
type StatsResponse struct {
	model.IngestStats
	Uptime       string `json:"uptime"`
	TotalRecords int64  `json:"totalRecords"` // all records in the store, not only this process's
}

// GetStats returns ingestion counters since process start and the stored record count
// @Summary Ingestion statistics
// @Tags ops
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Router /stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	var resp StatsResponse
	if h.tracker != nil {
		resp.IngestStats = h.tracker.Snapshot()
		resp.Uptime = time.Since(resp.StartedAt).Round(time.Second).String()
	}
	if h.store != nil {
		total, err := h.store.CountRecords(r.Context(), "")
		if err != nil {
			h.writeError(w, err)
			return
		}
		resp.TotalRecords = total
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports whether the store is reachable
// @Summary Health check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.log.Warnw("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
