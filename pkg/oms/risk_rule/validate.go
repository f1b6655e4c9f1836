package riskrule

import (
	"fmt"
	"strings"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

// Validate checks the fields each order type requires. Fields a type does not
// use are ignored rather than rejected.
func Validate(req model.OrderRequest) error {
	if !req.Type.Valid() {
		return &ValidationError{
			Code:    CodeUnsupportedOrderType,
			Message: fmt.Sprintf("unsupported order type: %s", req.Type),
		}
	}

	if strings.TrimSpace(req.Symbol) == "" {
		return &ValidationError{Code: CodeMissingSymbol, Message: "missing symbol"}
	}
	if !req.Side.Valid() {
		return &ValidationError{
			Code:    CodeInvalidSide,
			Message: fmt.Sprintf("invalid side: %s", req.Side),
		}
	}
	if !req.Quantity.IsPositive() {
		return &ValidationError{Code: CodeInvalidQuantity, Message: "quantity must be positive"}
	}

	switch req.Type {
	case model.OrderTypeLimit:
		if !req.Price.Valid {
			return &ValidationError{Code: CodeMissingPrice, Message: "missing price for LIMIT order"}
		}
		if !req.Price.Decimal.IsPositive() {
			return &ValidationError{Code: CodeInvalidPrice, Message: "price must be positive for LIMIT order"}
		}
	case model.OrderTypeStopMarket:
		if !req.StopPrice.Valid {
			return &ValidationError{Code: CodeMissingStopPrice, Message: "missing stop price for STOP_MARKET order"}
		}
		if !req.StopPrice.Decimal.IsPositive() {
			return &ValidationError{Code: CodeInvalidStopPrice, Message: "stop price must be positive for STOP_MARKET order"}
		}
	}

	return nil
}
