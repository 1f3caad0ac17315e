package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenWithMigrations(context.Background(), string(SQLite), path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

func makeRecords(fileName string, n int) []model.Record {
	recs := make([]model.Record, n)
	for i := range recs {
		recs[i] = model.Record{
			ID:            fmt.Sprintf("%s-%03d", fileName, i),
			Timestamp:     base.Add(time.Duration(i)*time.Second + time.Duration(i%3)*100*time.Millisecond),
			ExecutionTime: i,
			Value:         float64(i) / 2,
			FileName:      fileName,
		}
	}
	return recs
}

func TestOpenWithMigrations(t *testing.T) {
	db := openTestDB(t)

	var count int
	err := db.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// re-running is a no-op
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "x", nil)
	assert.Error(t, err)
}

func TestAppendAndRecentRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AppendRecords(ctx, makeRecords("a.csv", 15)))
	require.NoError(t, db.AppendRecords(ctx, makeRecords("b.csv", 3)))

	recs, err := db.RecentRecords(ctx, "a.csv", 10)
	require.NoError(t, err)
	require.Len(t, recs, 10)
	assert.Equal(t, "a.csv-014", recs[0].ID)
	for i, r := range recs {
		assert.Equal(t, "a.csv", r.FileName)
		assert.Equal(t, time.UTC, r.Timestamp.Location())
		if i > 0 {
			assert.True(t, r.Timestamp.Before(recs[i-1].Timestamp), "record %d out of order", i)
		}
	}

	recs, err = db.RecentRecords(ctx, "missing.csv", 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	n, err := db.CountRecords(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(18), n)
}

func TestAppendRecordsIsAllOrNothing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	recs := makeRecords("a.csv", 5)
	recs[3].ID = recs[1].ID // primary key violation mid-batch

	err := db.AppendRecords(ctx, recs)
	require.Error(t, err)
	assert.True(t, errors.IsStorageError(err))

	n, err := db.CountRecords(ctx, "a.csv")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSummaryUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.GetSummary(ctx, "a.csv")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	first := model.Summary{FileName: "a.csv", TimeDeltaSeconds: 10, MinDate: base, AverageValue: 1, MedianValue: 1, MinValue: 1, MaxValue: 1}
	require.NoError(t, db.UpsertSummary(ctx, first))

	second := model.Summary{
		FileName: "a.csv", TimeDeltaSeconds: 99,
		MinDate:              base.Add(time.Hour + 250*time.Millisecond),
		AverageExecutionTime: 3.5, AverageValue: 7, MedianValue: 6, MinValue: 2, MaxValue: 12,
	}
	require.NoError(t, db.UpsertSummary(ctx, second))

	got, err := db.GetSummary(ctx, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, second, *got)

	all, err := db.QuerySummaries(ctx, model.SummaryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestQuerySummariesFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i, name := range []string{"a.csv", "b.csv", "c.csv", "d.csv"} {
		require.NoError(t, db.UpsertSummary(ctx, model.Summary{
			FileName:             name,
			MinDate:              base.Add(time.Duration(i) * 24 * time.Hour),
			AverageValue:         float64(i * 10),
			AverageExecutionTime: float64(i),
		}))
	}

	ptr := func(f float64) *float64 { return &f }
	day1 := base.Add(24 * time.Hour)
	day2 := base.Add(48 * time.Hour)

	tests := []struct {
		name   string
		filter model.SummaryFilter
		want   []string
	}{
		{"none", model.SummaryFilter{}, []string{"a.csv", "b.csv", "c.csv", "d.csv"}},
		{"file name", model.SummaryFilter{FileName: "c.csv"}, []string{"c.csv"}},
		{"date range inclusive", model.SummaryFilter{MinStartDate: &day1, MaxStartDate: &day2}, []string{"b.csv", "c.csv"}},
		{"value bounds inclusive", model.SummaryFilter{MinAverageValue: ptr(10), MaxAverageValue: ptr(20)}, []string{"b.csv", "c.csv"}},
		{"execution time", model.SummaryFilter{MinAverageExecutionTime: ptr(3)}, []string{"d.csv"}},
		{"intersection", model.SummaryFilter{MinStartDate: &day1, MaxAverageExecutionTime: ptr(1)}, []string{"b.csv"}},
		{"no match", model.SummaryFilter{FileName: "a.csv", MinAverageValue: ptr(5)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.QuerySummaries(ctx, tt.filter)
			require.NoError(t, err)
			names := []string{}
			for _, s := range got {
				names = append(names, s.FileName)
				assert.True(t, tt.filter.Matches(s))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestQuerySummariesNonUTCBound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertSummary(ctx, model.Summary{FileName: "a.csv", MinDate: base}))

	// same instant as base, expressed at UTC+2
	bound := base.In(time.FixedZone("UTC+2", 2*60*60))
	got, err := db.QuerySummaries(ctx, model.SummaryFilter{MinStartDate: &bound, MaxStartDate: &bound})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestConcurrentUpserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("f%d.csv", i%2)
			v := float64(i)
			err := db.UpsertSummary(ctx, model.Summary{
				FileName: name, MinDate: base,
				AverageValue: v, MedianValue: v, MinValue: v, MaxValue: v,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := db.QuerySummaries(ctx, model.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		// each row holds one writer's complete statistics
		assert.Equal(t, s.AverageValue, s.MedianValue)
		assert.Equal(t, s.AverageValue, s.MinValue)
		assert.Equal(t, s.AverageValue, s.MaxValue)
	}
}
