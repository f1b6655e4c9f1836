package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OrderSpec is the gateway-facing form of a validated OrderRequest.
type OrderSpec struct {
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.NullDecimal
	StopPrice     decimal.NullDecimal
	TimeInForce   OrderTimeInForce
}

// NewOrderSpec maps a validated request. Fields the order type does not use are dropped.
func NewOrderSpec(clientOrderID string, req OrderRequest) OrderSpec {
	spec := OrderSpec{
		ClientOrderID: clientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		TimeInForce:   req.TimeInForce(),
	}

	switch req.Type {
	case OrderTypeLimit:
		spec.Price = req.Price
	case OrderTypeStopMarket:
		spec.StopPrice = req.StopPrice
	}

	return spec
}

// ExchangeResponse is what a gateway returns for an accepted order.
type ExchangeResponse struct {
	OrderID       string
	ClientOrderID string
	Status        string
	Raw           json.RawMessage
}
