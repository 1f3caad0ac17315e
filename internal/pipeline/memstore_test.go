package pipeline

import (
	"context"
	"sort"
	"sync"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

// memStore is an in-memory RecordStore and SummaryStore for tests
type memStore struct {
	mu        sync.Mutex
	records   []model.Record
	summaries map[string]model.Summary

	appendErr error
	upsertErr error
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{summaries: make(map[string]model.Summary)}
}

func (m *memStore) AppendRecords(_ context.Context, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) RecentRecords(_ context.Context, fileName string, limit int) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Record
	for _, r := range m.records {
		if r.FileName == fileName {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetSummary(_ context.Context, fileName string) (*model.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[fileName]
	if !ok {
		return nil, errors.Mark(errors.Newf("summary %s", fileName), errors.ErrNotFound)
	}
	return &s, nil
}

func (m *memStore) UpsertSummary(_ context.Context, s model.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.summaries[s.FileName] = s
	return nil
}

func (m *memStore) QuerySummaries(_ context.Context, f model.SummaryFilter) ([]model.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Summary
	for _, s := range m.summaries {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (m *memStore) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
