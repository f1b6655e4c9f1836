package repo

import (
	"context"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

type IAuditRecord interface {
	Create(ctx context.Context, record model.AuditRecord) error
	BulkCreate(ctx context.Context, records []model.AuditRecord) error
}
