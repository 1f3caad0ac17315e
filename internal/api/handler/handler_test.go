package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/internal/pipeline"
)

type fakePipeline struct {
	ingestName string
	ingestBody string
	ingestErr  error

	filter     model.SummaryFilter
	summaries  []model.Summary
	queryErr   error
	recentName string
	recentN    int
}

func (f *fakePipeline) Ingest(_ context.Context, name string, r io.Reader) (*model.IngestResult, error) {
	b, _ := io.ReadAll(r)
	f.ingestName, f.ingestBody = name, string(b)
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &model.IngestResult{FileName: name, RecordCount: 1}, nil
}

func (f *fakePipeline) QuerySummaries(_ context.Context, filter model.SummaryFilter) ([]model.Summary, error) {
	f.filter = filter
	return f.summaries, f.queryErr
}

func (f *fakePipeline) GetSummary(_ context.Context, name string) (*model.Summary, error) {
	for _, s := range f.summaries {
		if s.FileName == name {
			return &s, nil
		}
	}
	return nil, errors.Mark(errors.New("no summary"), errors.ErrNotFound)
}

func (f *fakePipeline) RecentRecordsN(_ context.Context, name string, limit int) ([]model.Record, error) {
	f.recentName, f.recentN = name, limit
	return []model.Record{}, nil
}

type fakeExporter struct{ format string }

func (f *fakeExporter) Stream(_ context.Context, w io.Writer, format string, _ model.SummaryFilter) (int, error) {
	f.format = format
	io.WriteString(w, "payload")
	return 1, nil
}

func newTestHandler(t *testing.T, p *fakePipeline) *Handler {
	return New(p, &fakeExporter{}, pipeline.NewIngestTracker(), nil, Options{}, zaptest.NewLogger(t).Sugar())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIngestMultipart(t *testing.T) {
	p := &fakePipeline{}
	h := newTestHandler(t, p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "run-7.csv")
	require.NoError(t, err)
	io.WriteString(fw, "Date;ExecutionTime;Value\n")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "run-7.csv", p.ingestName)
	assert.Equal(t, "Date;ExecutionTime;Value\n", p.ingestBody)
}

func TestIngestRawBody(t *testing.T) {
	p := &fakePipeline{}
	h := newTestHandler(t, p)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest?fileName=raw.csv", bytes.NewBufferString("x"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "raw.csv", p.ingestName)

	rec = httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Kind)
}

func TestIngestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &pipeline.ValidationError{Rule: pipeline.RuleNegativeValue, Row: 0, Line: 5, Reason: "Value -1 < 0"}, http.StatusUnprocessableEntity, "validation"},
		{"parse", errors.Parsef("line 2: invalid Date"), http.StatusBadRequest, "parse"},
		{"storage", errors.Storage(errors.New("secret dsn detail"), "append records"), http.StatusInternalServerError, "storage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakePipeline{ingestErr: tt.err})
			rec := httptest.NewRecorder()
			h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ingest?fileName=a.csv", bytes.NewBufferString("x")))

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotContains(t, resp.Error, "secret")
		})
	}

	h := newTestHandler(t, &fakePipeline{ingestErr: &pipeline.ValidationError{Rule: pipeline.RuleNegativeValue, Line: 5}})
	rec := httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ingest?fileName=a.csv", nil))
	resp := decodeError(t, rec)
	assert.Equal(t, pipeline.RuleNegativeValue, resp.Rule)
	assert.Equal(t, 5, resp.Line)
}

func TestListSummariesParsesFilter(t *testing.T) {
	p := &fakePipeline{summaries: []model.Summary{{FileName: "a.csv"}}}
	h := New(p, nil, nil, nil, Options{Location: time.FixedZone("UTC+1", 3600)}, nil)

	url := "/api/v1/summaries?fileName=a.csv&minStartDate=2023-01-01%2010:00:00&maxStartDate=2023-02-01T00:00:00Z&minAverageValue=1.5&maxAverageExecutionTime=9"
	rec := httptest.NewRecorder()
	h.ListSummaries(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.csv", p.filter.FileName)
	require.NotNil(t, p.filter.MinStartDate)
	assert.Equal(t, time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC), *p.filter.MinStartDate)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), *p.filter.MaxStartDate)
	assert.Equal(t, 1.5, *p.filter.MinAverageValue)
	assert.Nil(t, p.filter.MaxAverageValue)
	assert.Equal(t, 9.0, *p.filter.MaxAverageExecutionTime)

	var got []model.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestListSummariesBadFilter(t *testing.T) {
	h := newTestHandler(t, &fakePipeline{})
	rec := httptest.NewRecorder()
	h.ListSummaries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summaries?minAverageValue=lots", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "minAverageValue")
}

func TestRecentRecordsAndSummary(t *testing.T) {
	p := &fakePipeline{summaries: []model.Summary{{FileName: "a.csv", AverageValue: 3}}}
	h := newTestHandler(t, p)

	rec := httptest.NewRecorder()
	h.GetRecentRecords(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/a.csv/records", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.csv", p.recentName)
	assert.Equal(t, pipeline.DefaultRecentLimit, p.recentN)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = httptest.NewRecorder()
	h.GetRecentRecords(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/a.csv/records?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetRecentRecords(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/a.csv/records?limit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, p.recentN)

	rec = httptest.NewRecorder()
	h.GetRecentRecords(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/a.csv/records?limit=100000", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.DefaultRecentLimit, p.recentN)

	rec = httptest.NewRecorder()
	h.GetFileSummary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/a.csv/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetFileSummary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/b.csv/summary", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportSummaries(t *testing.T) {
	ex := &fakeExporter{}
	h := New(&fakePipeline{}, ex, nil, nil, Options{}, nil)

	rec := httptest.NewRecorder()
	h.ExportSummaries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summaries/export?format=parquet", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.FormatParquet, ex.format)
	assert.Equal(t, "payload", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "summaries.parquet")

	rec = httptest.NewRecorder()
	h.ExportSummaries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summaries/export", nil))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ExportSummaries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summaries/export?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeStore struct {
	err      error
	total    int64
	countErr error
}

func (f fakeStore) Ping(context.Context) error { return f.err }

func (f fakeStore) CountRecords(context.Context, string) (int64, error) { return f.total, f.countErr }

func TestHealthAndStats(t *testing.T) {
	tracker := pipeline.NewIngestTracker()
	tracker.Accepted("a.csv", 3, time.Millisecond)

	h := New(&fakePipeline{}, nil, tracker, fakeStore{total: 42}, Options{}, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.RecordsStored)
	assert.Equal(t, int64(42), stats.TotalRecords)

	h = New(&fakePipeline{}, nil, tracker, fakeStore{countErr: errors.Storage(errors.New("locked"), "count records")}, Options{}, nil)
	rec = httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	h = New(&fakePipeline{}, nil, nil, fakeStore{err: errors.New("down")}, Options{}, nil)
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
