package oms

import (
	"context"
	"errors"
	"net"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	riskrule "github.com/joripage/futures-order-bot/pkg/oms/risk_rule"
)

func validationResult(err error) model.OrderResult {
	detail := &model.ErrorDetail{
		Kind:    model.ErrorKindValidation,
		Message: err.Error(),
	}
	var verr *riskrule.ValidationError
	if errors.As(err, &verr) {
		detail.Reason = string(verr.Code)
	}
	return model.OrderResult{Outcome: model.OutcomeRejected, Error: detail}
}

// notDispatchedResult is used when the order is known not to have reached the exchange.
func notDispatchedResult(ctx context.Context, err error) model.OrderResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return timeoutResult()
	}
	if ctx.Err() != nil {
		return model.OrderResult{
			Outcome: model.OutcomeTransportError,
			Error: &model.ErrorDetail{
				Kind:    model.ErrorKindTransport,
				Reason:  model.ReasonCancelled,
				Message: model.ReasonCancelled,
			},
		}
	}
	return transportResult(err)
}

// classifyGatewayError maps a CreateOrder failure onto an outcome and keeps
// any exchange reply that came with it.
func classifyGatewayError(ctx context.Context, err error) model.OrderResult {
	result := classifyOutcome(ctx, err)
	var respErr *ResponseError
	if result.RawResponse == nil && errors.As(err, &respErr) {
		result.RawResponse = respErr.Raw
	}
	return result
}

// Order matters: exchange rejections win over everything, and a cancelled
// in-flight request is never reported as a plain transport failure.
func classifyOutcome(ctx context.Context, err error) model.OrderResult {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return model.OrderResult{
			Outcome: model.OutcomeRejected,
			Error: &model.ErrorDetail{
				Kind:    model.ErrorKindBusinessRejection,
				Code:    apiErr.Code,
				Message: apiErr.Message,
			},
			RawResponse: apiErr.Raw,
		}
	case errors.Is(err, ErrUnknownStatus):
		return indeterminateResult(err)
	case errors.Is(err, ErrNotDispatched):
		return notDispatchedResult(ctx, err)
	case isTimeout(err):
		return timeoutResult()
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return indeterminateResult(err)
	}
	return transportResult(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func timeoutResult() model.OrderResult {
	return model.OrderResult{
		Outcome: model.OutcomeTransportError,
		Error: &model.ErrorDetail{
			Kind:    model.ErrorKindTransport,
			Reason:  model.ReasonTimeout,
			Message: model.ReasonTimeout,
		},
	}
}

func indeterminateResult(err error) model.OrderResult {
	return model.OrderResult{
		Outcome: model.OutcomeIndeterminate,
		Error: &model.ErrorDetail{
			Kind:    model.ErrorKindTransport,
			Reason:  model.ReasonIndeterminate,
			Message: "order status indeterminate: " + err.Error(),
		},
	}
}

func transportResult(err error) model.OrderResult {
	return model.OrderResult{
		Outcome: model.OutcomeTransportError,
		Error: &model.ErrorDetail{
			Kind:    model.ErrorKindTransport,
			Message: err.Error(),
		},
	}
}
