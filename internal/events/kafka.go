// Package events publishes summary updates to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"go-measure-pipeline/internal/config"
	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
)

// TypeSummaryUpdated is the event type for a written summary
const TypeSummaryUpdated = "summary.updated"

// DefaultPublishTimeout bounds one publish when kafka.publish_timeout is unset
const DefaultPublishTimeout = 5 * time.Second

// SummaryEvent is the JSON payload of a summary update; the record key is the file name
type SummaryEvent struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurredAt"`
	Summary    model.Summary `json:"summary"`
}

// producer is the part of *kgo.Client used here
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher sends one record per summary update
type KafkaPublisher struct {
	client  producer
	topic   string
	timeout time.Duration
	log     *zap.SugaredLogger
	now     func() time.Time
}

// NewKafkaPublisher connects to the configured brokers.
// Returns nil, nil when no brokers are configured.
func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.SugaredLogger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka.topic is required when kafka.brokers is set")
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RecordDeliveryTimeout(timeout),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka client")
	}
	return newKafkaPublisher(cl, cfg.Topic, timeout, log), nil
}

func newKafkaPublisher(client producer, topic string, timeout time.Duration, log *zap.SugaredLogger) *KafkaPublisher {
	return &KafkaPublisher{
		client:  client,
		topic:   topic,
		timeout: timeout,
		log:     logger.Or(log).With("component", "events"),
		now:     time.Now,
	}
}

// PublishSummary produces a summary.updated event and waits for the broker ack,
// giving up after the publish timeout even if ctx has no deadline.
func (p *KafkaPublisher) PublishSummary(ctx context.Context, summary model.Summary) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(SummaryEvent{
		Type:       TypeSummaryUpdated,
		OccurredAt: p.now().UTC(),
		Summary:    summary,
	})
	if err != nil {
		return errors.Wrap(err, "encode summary event")
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(summary.FileName),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return errors.Wrapf(err, "produce to %s", p.topic)
	}

	p.log.Debugw("Summary event published", "topic", p.topic, "file", summary.FileName)
	return nil
}

// Close flushes and closes the client
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
