package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"policyregistry/internal/registry/models"
)

// Producer is the subset of *kgo.Client the Kafka publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes each event as one record on topic.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry models.OutboxEntry) error {
	rec, err := p.record(entry)
	if err != nil {
		return err
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", entry.Event.ID, err)
	}
	return nil
}

// record keys by event type so consumers of one type see them in order.
func (p *KafkaPublisher) record(entry models.OutboxEntry) (*kgo.Record, error) {
	value, err := json.Marshal(entry.Event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", entry.Event.ID, err)
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.Event.Type),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(entry.Event.ID.String())},
			{Key: "event_type", Value: []byte(entry.Event.Type)},
			{Key: "outbox_sequence", Value: []byte(strconv.FormatInt(entry.Sequence, 10))},
		},
		Timestamp: entry.Event.OccurredAt,
	}, nil
}

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, entry models.OutboxEntry) error {
	p.logger.InfoContext(ctx, string(entry.Event.Type),
		"event_id", entry.Event.ID.String(),
		"sequence", entry.Sequence,
		"occurred_at", entry.Event.OccurredAt,
		"payload", string(entry.Event.Payload),
		"log_type", "event",
	)
	return nil
}
