// Package worker moves audit records from a message bus into the OMS database.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkawrapper "github.com/joripage/futures-order-bot/pkg/kafka_wrapper"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/joripage/futures-order-bot/pkg/oms/repo"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const fetchBatch = 10

type Worker struct {
	auditRecord repo.IAuditRecord
}

func NewWorker(r repo.IRepo) *Worker {
	return &Worker{
		auditRecord: r.AuditRecord(),
	}
}

// StartNATSConsumer pulls from a durable JetStream consumer until ctx is done.
// Messages that fail to persist are left unacked for redelivery.
func (w *Worker) StartNATSConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	sub, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			zap.S().Warnf("fetch %s: %v", subject, err)
			continue
		}

		for _, msg := range msgs {
			record, ok := decode(msg.Data)
			if !ok {
				_ = msg.Term()
				continue
			}
			if err := w.auditRecord.Create(ctx, record); err != nil {
				zap.S().Errorf("persist audit record %s: %v", record.ID, err)
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}
}

// StartKafkaConsumer persists batches from a Kafka consumer group.
func (w *Worker) StartKafkaConsumer(ctx context.Context, cg *kafkawrapper.ConsumerGroup) error {
	return cg.Run(ctx, w.HandleKafkaBatch)
}

// HandleKafkaBatch skips undecodable messages and inserts the rest in one statement.
func (w *Worker) HandleKafkaBatch(ctx context.Context, msgs []kafkawrapper.Message) error {
	records := make([]model.AuditRecord, 0, len(msgs))
	for _, m := range msgs {
		if record, ok := decode(m.Value); ok {
			records = append(records, record)
		}
	}
	return w.auditRecord.BulkCreate(ctx, records)
}

func decode(data []byte) (model.AuditRecord, bool) {
	var record model.AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		zap.S().Warnf("unmarshal audit record: %v", err)
		return record, false
	}
	if record.ID == "" {
		zap.S().Warn("audit record without id")
		return record, false
	}
	return record, true
}
