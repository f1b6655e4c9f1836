package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

type OrderTimeInForce string

const (
	OrderTimeInForceNone OrderTimeInForce = ""
	OrderTimeInForceGTC  OrderTimeInForce = "GTC"
)

// OrderRequest is a normalized order as built by the caller.
// Price is only read for LIMIT orders and StopPrice only for STOP_MARKET orders.
type OrderRequest struct {
	Symbol    string              `json:"symbol"`
	Side      OrderSide           `json:"side"`
	Type      OrderType           `json:"type"`
	Quantity  decimal.Decimal     `json:"quantity"`
	Price     decimal.NullDecimal `json:"price"`
	StopPrice decimal.NullDecimal `json:"stop_price"`
}

// TimeInForce returns GTC for resting order types and none for MARKET.
func (r OrderRequest) TimeInForce() OrderTimeInForce {
	switch r.Type {
	case OrderTypeLimit, OrderTypeStopMarket:
		return OrderTimeInForceGTC
	}
	return OrderTimeInForceNone
}

func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStopMarket:
		return true
	}
	return false
}

// ParseOrderSide converts a wire or CLI value to an OrderSide.
func ParseOrderSide(s string) (OrderSide, error) {
	side := OrderSide(strings.ToUpper(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("invalid order side %q", s)
	}
	return side, nil
}

// ParseOrderType converts a wire or CLI value to an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	orderType := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	if !orderType.Valid() {
		return "", fmt.Errorf("unsupported order type %q", s)
	}
	return orderType, nil
}
