// Package kafkawrapper publishes JSON messages to Kafka and consumes a topic
// in batches with retry and an optional dead-letter topic.
package kafkawrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
	Headers   map[string]string
}

type ProducerConfig struct {
	Brokers      []string
	Balancer     kafka.Balancer
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks kafka.RequiredAcks
	// Async drops delivery errors. Leave false for records that must not be lost.
	Async bool
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.RequiredAcks == 0 && !cfg.Async {
		cfg.RequiredAcks = kafka.RequireAll
	}
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               cfg.Balancer,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           cfg.RequiredAcks,
		Async:                  cfg.Async,
	}
	return &Producer{w: wr}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	if p == nil || p.w == nil {
		return errors.New("producer not initialized")
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(headers),
		Time:    time.Now(),
	})
}

func (p *Producer) PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, []byte(key), b, headers)
}

func (p *Producer) Close(ctx context.Context) error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MaxRetries   uint64
	DLQTopic     string
	BatchSize    int
	BatchTimeout time.Duration
}

// ConsumerGroup reads one topic and hands batches to a handler. Offsets are
// committed only after the handler succeeds or the batch is dead-lettered.
type ConsumerGroup struct {
	r   *kafka.Reader
	cfg ConsumerConfig
	dlq *Producer
}

func NewConsumerGroup(cfg ConsumerConfig) *ConsumerGroup {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}

	rd := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	var dlq *Producer
	if cfg.DLQTopic != "" {
		dlq = NewProducer(ProducerConfig{Brokers: cfg.Brokers})
	}

	return &ConsumerGroup{r: rd, cfg: cfg, dlq: dlq}
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil {
		return nil
	}
	if cg.dlq != nil {
		_ = cg.dlq.Close(context.Background())
	}
	return cg.r.Close()
}

// Run blocks until ctx is done.
func (cg *ConsumerGroup) Run(ctx context.Context, handler func(context.Context, []Message) error) error {
	for {
		batch, err := cg.fetchBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.S().Warnf("kafka fetch %s: %v", cg.cfg.Topic, err)
		}
		if len(batch) == 0 {
			continue
		}

		if err := cg.handle(ctx, batch, handler); err != nil {
			return err
		}
		if err := cg.r.CommitMessages(ctx, batch...); err != nil && ctx.Err() == nil {
			zap.S().Warnf("kafka commit %s: %v", cg.cfg.Topic, err)
		}
	}
}

// fetchBatch collects up to BatchSize messages, returning early after BatchTimeout
// once at least one message has arrived.
func (cg *ConsumerGroup) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := cg.r.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []kafka.Message{first}

	fetchCtx, cancel := context.WithTimeout(ctx, cg.cfg.BatchTimeout)
	defer cancel()
	for len(batch) < cg.cfg.BatchSize {
		m, err := cg.r.FetchMessage(fetchCtx)
		if err != nil {
			break
		}
		batch = append(batch, m)
	}
	return batch, nil
}

func (cg *ConsumerGroup) handle(ctx context.Context, batch []kafka.Message, handler func(context.Context, []Message) error) error {
	wrapped := make([]Message, len(batch))
	for i, m := range batch {
		wrapped[i] = wrapMessage(m)
	}

	boff := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cg.cfg.MaxRetries), ctx)
	err := backoff.Retry(func() error {
		return handler(ctx, wrapped)
	}, boff)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if cg.dlq == nil {
		return fmt.Errorf("handle batch of %d from %s: %w", len(batch), cg.cfg.Topic, err)
	}

	zap.S().Errorf("dead-letter %d messages from %s: %v", len(batch), cg.cfg.Topic, err)
	for _, m := range wrapped {
		if err := cg.dlq.Publish(ctx, cg.cfg.DLQTopic, m.Key, m.Value, m.Headers); err != nil {
			return fmt.Errorf("publish to dlq %s: %w", cg.cfg.DLQTopic, err)
		}
	}
	return nil
}

func wrapMessage(m kafka.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
		Headers:   headers,
	}
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	kh := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kh
}
