package eventstore

import (
	"context"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/joripage/futures-order-bot/pkg/oms/repo"
)

// SQLEventStore writes audit records straight to the OMS database.
type SQLEventStore struct {
	auditRecord repo.IAuditRecord
	close       func() error
}

func NewSQLEventStore(r repo.IRepo, closeFn func() error) *SQLEventStore {
	return &SQLEventStore{auditRecord: r.AuditRecord(), close: closeFn}
}

func (s *SQLEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	return s.auditRecord.Create(ctx, record)
}

func (s *SQLEventStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
