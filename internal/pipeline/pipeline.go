package pipeline

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
)

// DefaultRecentLimit is the number of records returned by RecentRecords
const DefaultRecentLimit = 10

// RecordStore persists individual measurements
type RecordStore interface {
	// AppendRecords writes the whole batch or nothing
	AppendRecords(ctx context.Context, records []model.Record) error
	// RecentRecords returns up to limit records for fileName, newest first
	RecentRecords(ctx context.Context, fileName string, limit int) ([]model.Record, error)
}

// SummaryStore persists per-file summaries keyed by file name
type SummaryStore interface {
	// GetSummary returns errors.ErrNotFound when no summary exists
	GetSummary(ctx context.Context, fileName string) (*model.Summary, error)
	// UpsertSummary inserts or fully overwrites the summary in one atomic step
	UpsertSummary(ctx context.Context, summary model.Summary) error
	// QuerySummaries returns the summaries matching every set bound
	QuerySummaries(ctx context.Context, filter model.SummaryFilter) ([]model.Summary, error)
}

// SummaryPublisher announces a freshly written summary
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, summary model.Summary) error
}

// Pipeline runs one batch at a time through parse, validate, normalize,
// record append, summarize and summary upsert. Ingestions of distinct files
// share no mutable state and may run in parallel.
type Pipeline struct {
	records   RecordStore
	summaries SummaryStore
	validator *Validator
	publisher SummaryPublisher
	tracker   *IngestTracker
	parseOpts ParseOptions
	newID     func() string
	recent    int
	log       *zap.SugaredLogger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithValidator replaces the wall-clock validator
func WithValidator(v *Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithPublisher sets where summary events are sent
func WithPublisher(pub SummaryPublisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithTracker sets the stats tracker
func WithTracker(t *IngestTracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// WithParseOptions sets delimiter and input timezone
func WithParseOptions(opts ParseOptions) Option {
	return func(p *Pipeline) { p.parseOpts = opts }
}

// WithIDGenerator replaces the uuid generator
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// WithRecentLimit sets the RecentRecords default limit
func WithRecentLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.recent = n
		}
	}
}

// New creates a pipeline over the given stores
func New(records RecordStore, summaries SummaryStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		records:   records,
		summaries: summaries,
		validator: NewValidator(),
		parseOpts: DefaultParseOptions(),
		newID:     NewRecordID,
		recent:    DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.Or(p.log).With("component", "pipeline")
	return p
}

// Tracker returns the stats tracker, which may be nil
func (p *Pipeline) Tracker() *IngestTracker {
	return p.tracker
}

// Ingest parses r as one batch for fileName and runs it through the pipeline
func (p *Pipeline) Ingest(ctx context.Context, fileName string, r io.Reader) (*model.IngestResult, error) {
	if fileName == "" {
		return nil, errors.InvalidRequestf("file name is required")
	}

	rows, err := ParseCSV(r, p.parseOpts)
	if err != nil {
		p.log.Warnw("Batch rejected", "file", fileName, "stage", "parse", "error", err)
		p.tracker.Rejected(fileName, err)
		return nil, errors.Wrapf(err, "ingest %s", fileName)
	}
	return p.IngestRows(ctx, fileName, rows)
}

// IngestRows runs already-parsed rows through validation, persistence and summary upsert.
//
// Records are fully persisted before the summary is written. If the summary
// write fails the records stay stored and the error is marked ErrStorage; re-ingesting
// the file recomputes and overwrites the summary.
func (p *Pipeline) IngestRows(ctx context.Context, fileName string, rows []*model.RawRow) (*model.IngestResult, error) {
	if fileName == "" {
		return nil, errors.InvalidRequestf("file name is required")
	}
	start := time.Now()

	if err := p.validator.Validate(rows); err != nil {
		p.log.Warnw("Batch rejected", "file", fileName, "stage", "validation", "rows", len(rows), "error", err)
		p.tracker.Rejected(fileName, err)
		return nil, err
	}

	records := NormalizeBatch(fileName, rows, p.newID)

	if err := p.records.AppendRecords(ctx, records); err != nil {
		err = markStorage(err, "append records")
		p.log.Errorw("Record append failed", "file", fileName, "records", len(records), "error", err)
		p.tracker.Failed(fileName, err)
		return nil, err
	}

	summary, err := Summarize(fileName, records)
	if err != nil {
		p.tracker.Failed(fileName, err)
		return nil, err
	}

	if err := p.summaries.UpsertSummary(ctx, summary); err != nil {
		err = errors.WithHint(markStorage(err, "upsert summary"),
			"records were stored; re-ingest the file to rebuild its summary")
		p.log.Errorw("Summary upsert failed after records were stored",
			"file", fileName, "records", len(records), "error", err)
		p.tracker.Failed(fileName, err)
		return nil, err
	}

	p.publish(ctx, summary)

	took := time.Since(start)
	p.tracker.Accepted(fileName, len(records), took)
	p.log.Infow("Batch ingested",
		"file", fileName,
		"records", len(records),
		"median_value", summary.MedianValue,
		"duration_ms", took.Milliseconds())

	return &model.IngestResult{
		FileName:    fileName,
		RecordCount: len(records),
		Summary:     summary,
		Duration:    took,
	}, nil
}

// publish is best effort; the summary is already durable
func (p *Pipeline) publish(ctx context.Context, summary model.Summary) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishSummary(ctx, summary); err != nil {
		p.log.Warnw("Summary event not published", "file", summary.FileName, "error", err)
		p.tracker.EventFailed()
	}
}

// markStorage keeps an existing storage mark or adds one
func markStorage(err error, context string) error {
	if errors.IsStorageError(err) {
		return errors.Wrap(err, context)
	}
	return errors.Storage(err, context)
}
