package model

import (
	"encoding/json"
	"fmt"
)

type OrderOutcome string

const (
	OutcomePlaced         OrderOutcome = "PLACED"
	OutcomeRejected       OrderOutcome = "REJECTED"
	OutcomeTransportError OrderOutcome = "TRANSPORT_ERROR"
	// OutcomeIndeterminate means the exchange may have accepted the order.
	OutcomeIndeterminate OrderOutcome = "INDETERMINATE"
)

type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "VALIDATION"
	ErrorKindBusinessRejection ErrorKind = "BUSINESS_REJECTION"
	ErrorKindTransport         ErrorKind = "TRANSPORT"
)

const (
	ReasonCancelled     = "cancelled"
	ReasonTimeout       = "timeout"
	ReasonIndeterminate = "indeterminate"
)

type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Code    int       `json:"code,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Message string    `json:"message"`
}

func (d *ErrorDetail) String() string {
	if d == nil {
		return ""
	}
	if d.Code != 0 {
		return fmt.Sprintf("%s (code=%d)", d.Message, d.Code)
	}
	return d.Message
}

type OrderResult struct {
	Outcome         OrderOutcome    `json:"outcome"`
	ExchangeOrderID string          `json:"exchange_order_id,omitempty"`
	ClientOrderID   string          `json:"client_order_id,omitempty"`
	Error           *ErrorDetail    `json:"error,omitempty"`
	RawResponse     json.RawMessage `json:"raw_response,omitempty"`
}

func (r OrderResult) Placed() bool {
	return r.Outcome == OutcomePlaced
}
