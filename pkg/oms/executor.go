package oms

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	riskrule "github.com/joripage/futures-order-bot/pkg/oms/risk_rule"
	"go.uber.org/zap"
)

const defaultAuditTimeout = 5 * time.Second

type OrderExecutorConfig struct {
	// Validator defaults to riskrule.NewValidator() with no extra rules.
	Validator OrderValidator
	Logger    *logging.Logger
	// AuditTimeout bounds Append, which runs even after the caller's ctx is done.
	AuditTimeout     time.Duration
	Now              func() time.Time
	NewClientOrderID func() string
}

// OrderExecutor validates, dispatches and audits single orders.
// It is safe for concurrent use.
type OrderExecutor struct {
	gateway   ExchangeGateway
	sink      AuditSink
	validator OrderValidator
	logger    *logging.Logger

	auditTimeout     time.Duration
	now              func() time.Time
	newClientOrderID func() string

	seq atomic.Uint64
}

func NewOrderExecutor(gateway ExchangeGateway, sink AuditSink, cfg *OrderExecutorConfig) *OrderExecutor {
	if gateway == nil {
		panic("oms: nil exchange gateway")
	}
	if sink == nil {
		panic("oms: nil audit sink")
	}
	if cfg == nil {
		cfg = &OrderExecutorConfig{}
	}

	e := &OrderExecutor{
		gateway:          gateway,
		sink:             sink,
		validator:        cfg.Validator,
		logger:           cfg.Logger,
		auditTimeout:     cfg.AuditTimeout,
		now:              cfg.Now,
		newClientOrderID: cfg.NewClientOrderID,
	}
	if e.validator == nil {
		e.validator = riskrule.NewValidator()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.auditTimeout <= 0 {
		e.auditTimeout = defaultAuditTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newClientOrderID == nil {
		e.newClientOrderID = uuid.NewString
	}

	return e
}

// Submit places one order and records exactly one audit entry for it.
// The result is always usable. The error is non-nil only when the audit
// record could not be appended, and wraps ErrAuditAppend.
func (e *OrderExecutor) Submit(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	result := e.execute(ctx, req)
	e.logResult(ctx, req, result)

	return result, e.audit(ctx, req, result)
}

func (e *OrderExecutor) execute(ctx context.Context, req model.OrderRequest) model.OrderResult {
	if err := e.validator.Validate(req); err != nil {
		return validationResult(err)
	}

	spec := model.NewOrderSpec(e.newClientOrderID(), req)

	if err := ctx.Err(); err != nil {
		result := notDispatchedResult(ctx, err)
		result.ClientOrderID = spec.ClientOrderID
		return result
	}

	e.logger.Debug(ctx, "dispatching order",
		zap.String("client_order_id", spec.ClientOrderID),
		zap.String("symbol", spec.Symbol),
		zap.String("side", string(spec.Side)),
		zap.String("type", string(spec.Type)),
	)

	resp, err := e.gateway.CreateOrder(ctx, spec)
	if err != nil {
		result := classifyGatewayError(ctx, err)
		result.ClientOrderID = spec.ClientOrderID
		return result
	}
	// Placed requires an exchange order id, whatever the gateway.
	if resp == nil || resp.OrderID == "" {
		result := transportResult(fmt.Errorf("%w: missing exchange order id", ErrMalformedResponse))
		result.ClientOrderID = spec.ClientOrderID
		if resp != nil {
			result.RawResponse = resp.Raw
		}
		return result
	}

	clientOrderID := resp.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = spec.ClientOrderID
	}
	return model.OrderResult{
		Outcome:         model.OutcomePlaced,
		ExchangeOrderID: resp.OrderID,
		ClientOrderID:   clientOrderID,
		RawResponse:     resp.Raw,
	}
}

func (e *OrderExecutor) audit(ctx context.Context, req model.OrderRequest, result model.OrderResult) error {
	record := model.NewAuditRecord(e.seq.Add(1), e.now().UTC(), req, result)

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.auditTimeout)
	defer cancel()

	if err := e.sink.Append(auditCtx, record); err != nil {
		e.logger.Error(ctx, "append audit record failed",
			zap.Uint64("seq", record.Seq),
			zap.String("audit_id", record.ID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: seq=%d: %w", ErrAuditAppend, record.Seq, err)
	}
	return nil
}

func (e *OrderExecutor) logResult(ctx context.Context, req model.OrderRequest, result model.OrderResult) {
	fields := []zap.Field{
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.Type)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("outcome", string(result.Outcome)),
		zap.String("client_order_id", result.ClientOrderID),
	}

	switch result.Outcome {
	case model.OutcomePlaced:
		e.logger.Info(ctx, "order placed", append(fields, zap.String("order_id", result.ExchangeOrderID))...)
	case model.OutcomeRejected:
		e.logger.Warn(ctx, "order rejected", append(fields, zap.Stringer("error", result.Error))...)
	default:
		e.logger.Error(ctx, "order failed", append(fields, zap.Stringer("error", result.Error))...)
	}
}
