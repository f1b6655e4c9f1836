package eventstore

import (
	"context"
	"fmt"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error
	Close(ctx context.Context) error
}

// KafkaEventStore publishes audit records keyed by symbol, so records for
// one instrument stay ordered within a partition.
type KafkaEventStore struct {
	producer jsonPublisher
	topic    string
}

func NewKafkaEventStore(producer jsonPublisher, topic string) *KafkaEventStore {
	return &KafkaEventStore{producer: producer, topic: topic}
}

func (s *KafkaEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	headers := map[string]string{
		"audit_id": record.ID,
		"outcome":  string(record.Result.Outcome),
	}
	if err := s.producer.PublishJSON(ctx, s.topic, record.Request.Symbol, record, headers); err != nil {
		return fmt.Errorf("publish audit record to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaEventStore) Close() error {
	return s.producer.Close(context.Background())
}
