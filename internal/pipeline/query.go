package pipeline

import (
	"context"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// QuerySummaries returns every summary matching filter. No match yields an empty slice.
func (p *Pipeline) QuerySummaries(ctx context.Context, filter model.SummaryFilter) ([]model.Summary, error) {
	summaries, err := p.summaries.QuerySummaries(ctx, filter)
	if err != nil {
		return nil, markStorage(err, "query summaries")
	}
	if summaries == nil {
		summaries = []model.Summary{}
	}
	return summaries, nil
}

// GetSummary returns the summary for one file, or an ErrNotFound error
func (p *Pipeline) GetSummary(ctx context.Context, fileName string) (*model.Summary, error) {
	if fileName == "" {
		return nil, errors.InvalidRequestf("file name is required")
	}
	s, err := p.summaries.GetSummary(ctx, fileName)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, markStorage(err, "get summary")
	}
	return s, nil
}

// RecentRecords returns the newest records for fileName, at most the configured limit
func (p *Pipeline) RecentRecords(ctx context.Context, fileName string) ([]model.Record, error) {
	return p.RecentRecordsN(ctx, fileName, p.recent)
}

// RecentRecordsN is RecentRecords with a smaller limit; values outside
// 1..configured limit fall back to the configured limit
func (p *Pipeline) RecentRecordsN(ctx context.Context, fileName string, limit int) ([]model.Record, error) {
	if fileName == "" {
		return nil, errors.InvalidRequestf("file name is required")
	}
	if limit <= 0 || limit > p.recent {
		limit = p.recent
	}
	records, err := p.records.RecentRecords(ctx, fileName, limit)
	if err != nil {
		return nil, markStorage(err, "recent records")
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}
