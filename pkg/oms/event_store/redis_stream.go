package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/redis/go-redis/v9"
)

type RedisStreamConfig struct {
	Stream string `yaml:"stream"`
	// MaxLen trims the stream approximately; zero keeps everything.
	MaxLen int64 `yaml:"max_len"`
}

// RedisStreamEventStore appends audit records to a Redis stream with XADD.
type RedisStreamEventStore struct {
	client *redis.Client
	cfg    RedisStreamConfig
}

func NewRedisStreamEventStore(client *redis.Client, cfg RedisStreamConfig) *RedisStreamEventStore {
	if cfg.Stream == "" {
		cfg.Stream = "audit:orders"
	}
	return &RedisStreamEventStore{client: client, cfg: cfg}
}

func (s *RedisStreamEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: map[string]interface{}{
			"id":      record.ID,
			"seq":     record.Seq,
			"symbol":  record.Request.Symbol,
			"outcome": string(record.Result.Outcome),
			"payload": payload,
		},
	}
	if s.cfg.MaxLen > 0 {
		args.MaxLen = s.cfg.MaxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.cfg.Stream, err)
	}
	return nil
}

func (s *RedisStreamEventStore) Close() error {
	return s.client.Close()
}
