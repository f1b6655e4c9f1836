package eventstore

import (
	"fmt"

	nats_wrapper "github.com/joripage/futures-order-bot/pkg/infra/nats"
	postgres_wrapper "github.com/joripage/futures-order-bot/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/futures-order-bot/pkg/infra/redis"
	kafkawrapper "github.com/joripage/futures-order-bot/pkg/kafka_wrapper"
	"github.com/joripage/futures-order-bot/pkg/oms/repo"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Open builds every sink named in cfg.Sinks, in order. An empty list falls
// back to an unbounded in-memory sink so Submit always has somewhere to
// write and nothing is evicted.
func Open(cfg *Config) (*MultiEventStore, error) {
	multi := NewMultiEventStore()

	if len(cfg.Sinks) == 0 {
		multi.Add(SinkMemory, NewInMemoryEventStore(MemoryConfig{Capacity: UnboundedCapacity}))
		return multi, nil
	}

	for _, name := range cfg.Sinks {
		store, err := openSink(name, cfg)
		if err != nil {
			_ = multi.Close()
			return nil, fmt.Errorf("open %s audit sink: %w", name, err)
		}
		zap.S().Debugf("audit sink %s ready", name)
		multi.Add(name, store)
	}

	return multi, nil
}

func openSink(name string, cfg *Config) (Store, error) {
	switch name {
	case SinkMemory:
		return NewInMemoryEventStore(cfg.Memory), nil
	case SinkFile:
		return NewFileEventStore(cfg.File)
	case SinkSQLite:
		return NewSQLiteEventStore(cfg.SQLite)
	case SinkPostgres:
		if cfg.OmsDB == nil {
			return nil, fmt.Errorf("missing oms_db config")
		}
		db, err := postgres_wrapper.InitPostgres(cfg.OmsDB)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return NewSQLEventStore(repo.NewRepo(db), sqlDB.Close), nil
	case SinkRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("missing redis config")
		}
		client, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStreamEventStore(client, cfg.RedisStream), nil
	case SinkKafka:
		if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
			return nil, fmt.Errorf("kafka brokers and topic are required")
		}
		producer := kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RequiredAcks: kafka.RequireAll,
		})
		return NewKafkaEventStore(producer, cfg.Kafka.Topic), nil
	case SinkNATS:
		if cfg.NATS.Subject == "" {
			return nil, fmt.Errorf("missing nats subject")
		}
		nc, js, err := nats_wrapper.InitJetStream(&cfg.NATS.NATSConfig)
		if err != nil {
			return nil, err
		}
		return NewNATSEventStore(js, cfg.NATS.Subject, nc.Close), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}
