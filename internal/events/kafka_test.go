package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zaptest"

	"go-measure-pipeline/internal/config"
	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() { f.closed = true }

// stalledProducer never reaches a broker and gives up only when ctx is done
type stalledProducer struct{}

func (stalledProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	<-ctx.Done()
	var results kgo.ProduceResults
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: ctx.Err()})
	}
	return results
}

func (stalledProducer) Close() {}

func TestPublishSummary(t *testing.T) {
	fake := &fakeProducer{}
	pub := newKafkaPublisher(fake, "summaries", time.Second, zaptest.NewLogger(t).Sugar())
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	pub.now = func() time.Time { return at }

	s := model.Summary{FileName: "a.csv", AverageValue: 2.5, MinDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, pub.PublishSummary(context.Background(), s))

	require.Len(t, fake.records, 1)
	rec := fake.records[0]
	assert.Equal(t, "summaries", rec.Topic)
	assert.Equal(t, "a.csv", string(rec.Key))

	var ev SummaryEvent
	require.NoError(t, json.Unmarshal(rec.Value, &ev))
	assert.Equal(t, TypeSummaryUpdated, ev.Type)
	assert.Equal(t, at, ev.OccurredAt)
	assert.Equal(t, s, ev.Summary)

	pub.Close()
	assert.True(t, fake.closed)
}

func TestPublishSummaryBrokerError(t *testing.T) {
	fake := &fakeProducer{err: errors.New("not leader for partition")}
	pub := newKafkaPublisher(fake, "summaries", time.Second, nil)

	err := pub.PublishSummary(context.Background(), model.Summary{FileName: "a.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not leader")
}

func TestNewKafkaPublisherDisabled(t *testing.T) {
	pub, err := NewKafkaPublisher(config.KafkaConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, pub)

	_, err = NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)
}

func TestPublishSummaryUnreachableBrokerTimesOut(t *testing.T) {
	pub := newKafkaPublisher(stalledProducer{}, "summaries", 50*time.Millisecond, zaptest.NewLogger(t).Sugar())

	done := make(chan error, 1)
	go func() {
		done <- pub.PublishSummary(context.Background(), model.Summary{FileName: "a.csv"})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(5 * time.Second):
		t.Fatal("publish did not give up after its timeout")
	}
}
