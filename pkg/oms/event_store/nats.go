package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/nats-io/nats.go"
)

type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSEventStore publishes audit records to JetStream and waits for the ack.
// The record id is used as Nats-Msg-Id so redeliveries are deduplicated.
type NATSEventStore struct {
	js      jetStreamPublisher
	subject string
	close   func()
}

func NewNATSEventStore(js jetStreamPublisher, subject string, closeFn func()) *NATSEventStore {
	return &NATSEventStore{js: js, subject: subject, close: closeFn}
}

func (s *NATSEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := s.js.Publish(s.subject, data, nats.Context(ctx), nats.MsgId(record.ID)); err != nil {
		return fmt.Errorf("publish audit record to %s: %w", s.subject, err)
	}
	return nil
}

func (s *NATSEventStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
