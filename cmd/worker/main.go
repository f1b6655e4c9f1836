package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joripage/futures-order-bot/config"
	nats_wrapper "github.com/joripage/futures-order-bot/pkg/infra/nats"
	postgres_wrapper "github.com/joripage/futures-order-bot/pkg/infra/postgres"
	kafkawrapper "github.com/joripage/futures-order-bot/pkg/kafka_wrapper"
	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms/repo"
	"github.com/joripage/futures-order-bot/pkg/oms/worker"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLoggerWithConfig(logging.Config{Level: cfg.Log.Level}).With(zap.String("service", "audit-worker"))
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Zap())

	configBytes, err := json.MarshalIndent(cfg.Worker, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// init db
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.Audit.OmsDB)
	if err != nil {
		zap.S().Errorf("init db fail with err: %v", err)
		panic(err)
	}
	sqlRepo := repo.NewRepo(db)
	w := worker.NewWorker(sqlRepo)

	switch cfg.Worker.Source {
	case "kafka":
		cg := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfig{
			Brokers:    cfg.Audit.Kafka.Brokers,
			GroupID:    cfg.Worker.GroupID,
			Topic:      cfg.Audit.Kafka.Topic,
			MaxRetries: 3,
			DLQTopic:   cfg.Audit.Kafka.Topic + ".dlq",
		})
		defer cg.Close()
		err = w.StartKafkaConsumer(ctx, cg)
		exit(err)

	default:
		nc, js, err := nats_wrapper.InitJetStream(&cfg.Audit.NATS.NATSConfig)
		if err != nil {
			panic(err)
		}
		defer nc.Close()
		err = w.StartNATSConsumer(ctx, js, cfg.Audit.NATS.Subject, cfg.Worker.Durable)
		exit(err)
	}
}

func exit(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		zap.S().Errorf("worker stopped: %v", err)
		return
	}
	zap.S().Info("worker stopped")
}
