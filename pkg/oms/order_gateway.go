package oms

import (
	"context"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

// ExchangeGateway places orders on a venue. Business rejections are returned
// as *APIError; anything else is treated as a transport failure. Implementations
// wrap ErrNotDispatched or ErrUnknownStatus when they know which side of the wire
// a failure happened on.
type ExchangeGateway interface {
	CreateOrder(ctx context.Context, spec model.OrderSpec) (*model.ExchangeResponse, error)
}

// AuditSink receives one record per Submit call.
type AuditSink interface {
	Append(ctx context.Context, record model.AuditRecord) error
}

type OrderValidator interface {
	Validate(req model.OrderRequest) error
}
