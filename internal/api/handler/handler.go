package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/internal/pipeline"
)

// Pipeline is the ingestion and query surface the handlers drive
type Pipeline interface {
	Ingest(ctx context.Context, fileName string, r io.Reader) (*model.IngestResult, error)
	QuerySummaries(ctx context.Context, filter model.SummaryFilter) ([]model.Summary, error)
	GetSummary(ctx context.Context, fileName string) (*model.Summary, error)
	RecentRecordsN(ctx context.Context, fileName string, limit int) ([]model.Record, error)
}

// Exporter streams filtered summaries
type Exporter interface {
	Stream(ctx context.Context, w io.Writer, format string, filter model.SummaryFilter) (int, error)
}

// Store reports store health and size
type Store interface {
	Ping(ctx context.Context) error
	CountRecords(ctx context.Context, fileName string) (int64, error)
}

// Options configures request parsing
type Options struct {
	// Location reads filter timestamps that carry no zone
	Location       *time.Location
	RecentLimit    int
	MaxUploadBytes int64
}

// Handler serves the HTTP API
type Handler struct {
	pipeline Pipeline
	exporter Exporter
	tracker  *pipeline.IngestTracker
	store    Store
	opts     Options
	log      *zap.SugaredLogger
}

// New creates the API handler. tracker and store may be nil.
func New(p Pipeline, exporter Exporter, tracker *pipeline.IngestTracker, store Store, opts Options, log *zap.SugaredLogger) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = pipeline.DefaultRecentLimit
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		pipeline: p,
		exporter: exporter,
		tracker:  tracker,
		store:    store,
		opts:     opts,
		log:      logger.Or(log).With("component", "api"),
	}
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Rule  string   `json:"rule,omitempty"`
	Line  int      `json:"line,omitempty"`
	Hints []string `json:"hints,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error kind to a status code
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Hints: errors.GetAllHints(err)}
	status := http.StatusInternalServerError

	var verr *pipeline.ValidationError
	switch {
	case errors.As(err, &verr):
		status, resp.Kind = http.StatusUnprocessableEntity, "validation"
		resp.Rule, resp.Line = verr.Rule, verr.Line
	case errors.IsParseError(err):
		status, resp.Kind = http.StatusBadRequest, "parse"
	case errors.IsInvalidRequestError(err):
		status, resp.Kind = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errors.ErrNotFound):
		status, resp.Kind = http.StatusNotFound, "not_found"
	case errors.IsStorageError(err):
		resp.Kind = "storage"
	default:
		resp.Kind = "internal"
	}

	if status >= 500 {
		h.log.Errorw("Request failed", "error", err)
		// storage internals stay in the log
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

// fileNameSegment returns the path segment after /api/v1/files/
func fileNameSegment(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}
