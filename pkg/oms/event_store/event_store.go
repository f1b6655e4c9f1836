package eventstore

import (
	"context"
	"time"

	nats_wrapper "github.com/joripage/futures-order-bot/pkg/infra/nats"
	postgres_wrapper "github.com/joripage/futures-order-bot/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/futures-order-bot/pkg/infra/redis"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

// Store is an append-only audit log. Records are never updated or removed.
type Store interface {
	Append(ctx context.Context, record model.AuditRecord) error
	Close() error
}

const (
	SinkMemory   = "memory"
	SinkFile     = "file"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkKafka    = "kafka"
	SinkNATS     = "nats"
)

type NATSConfig struct {
	nats_wrapper.NATSConfig `yaml:",inline"`
	Subject                 string `yaml:"subject"`
}

// Config selects and configures the audit sinks. Only sections named in
// Sinks are read.
type Config struct {
	Sinks       []string                         `yaml:"sinks"`
	TimeoutMs   int64                            `yaml:"timeout_ms"`
	Memory      MemoryConfig                     `yaml:"memory"`
	File        FileConfig                       `yaml:"file"`
	SQLite      SQLiteConfig                     `yaml:"sqlite"`
	OmsDB       *postgres_wrapper.PostgresConfig `yaml:"oms_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	RedisStream RedisStreamConfig                `yaml:"redis_stream"`
	Kafka       KafkaConfig                      `yaml:"kafka"`
	NATS        NATSConfig                       `yaml:"nats"`
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
