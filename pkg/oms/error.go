package oms

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotDispatched marks gateway failures where the order never left the process.
	ErrNotDispatched = errors.New("order not dispatched")
	// ErrUnknownStatus marks gateway failures where the exchange may have executed the order.
	ErrUnknownStatus = errors.New("order execution status unknown")
	// ErrTimeout marks a gateway that gave up waiting for the exchange.
	ErrTimeout = errors.New("timeout")
	// ErrMalformedResponse marks an exchange reply the gateway could not decode.
	ErrMalformedResponse = errors.New("malformed response")

	ErrAuditAppend = errors.New("audit append failed")
)

// APIError is a business rejection reported by the exchange for a well-formed order.
type APIError struct {
	Code    int
	Message string
	Raw     json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange error code=%d msg=%s", e.Code, e.Message)
}

// ResponseError is a gateway failure that still came with an exchange reply.
// Raw is carried into the order result.
type ResponseError struct {
	Raw json.RawMessage
	Err error
}

func (e *ResponseError) Error() string {
	return e.Err.Error()
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
