// Package paper is a dry-run exchange gateway backed by a virtual margin account.
package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rejection codes mirror the Binance futures codes for the same conditions.
const (
	codeInvalidSymbol      = -1121
	codeMarginInsufficient = -2019
)

type Config struct {
	InitialMargin decimal.Decimal            `yaml:"initial_margin"`
	Leverage      int64                      `yaml:"leverage"`
	MarkPrices    map[string]decimal.Decimal `yaml:"mark_prices"`
	LatencyMs     int64                      `yaml:"latency_ms"`
}

type Order struct {
	OrderID       int64               `json:"orderId"`
	ClientOrderID string              `json:"clientOrderId"`
	Symbol        string              `json:"symbol"`
	Side          model.OrderSide     `json:"side"`
	Type          model.OrderType     `json:"type"`
	Quantity      decimal.Decimal     `json:"origQty"`
	Price         decimal.NullDecimal `json:"price"`
	StopPrice     decimal.NullDecimal `json:"stopPrice"`
	Status        string              `json:"status"`
	Margin        decimal.Decimal     `json:"-"`
	UpdateTime    int64               `json:"updateTime"`
}

// Gateway fills MARKET orders at the configured mark price and rests LIMIT and
// STOP_MARKET orders as NEW. Every accepted order locks initial margin.
type Gateway struct {
	mu        sync.Mutex
	leverage  decimal.Decimal
	available decimal.Decimal
	prices    map[string]decimal.Decimal
	orders    []Order
	nextID    int64
	latency   time.Duration
	logger    *logging.Logger
}

func NewGateway(cfg *Config, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	leverage := cfg.Leverage
	if leverage <= 0 {
		leverage = 1
	}
	prices := make(map[string]decimal.Decimal, len(cfg.MarkPrices))
	for symbol, price := range cfg.MarkPrices {
		prices[symbol] = price
	}

	return &Gateway{
		leverage:  decimal.NewFromInt(leverage),
		available: cfg.InitialMargin,
		prices:    prices,
		nextID:    1,
		latency:   time.Duration(cfg.LatencyMs) * time.Millisecond,
		logger:    logger,
	}
}

func (g *Gateway) CreateOrder(ctx context.Context, spec model.OrderSpec) (*model.ExchangeResponse, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, ctx.Err())
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	mark, ok := g.prices[spec.Symbol]
	if !ok {
		return nil, rejection(codeInvalidSymbol, "Invalid symbol.")
	}

	refPrice := mark
	status := "FILLED"
	switch spec.Type {
	case model.OrderTypeLimit:
		refPrice, status = spec.Price.Decimal, "NEW"
	case model.OrderTypeStopMarket:
		refPrice, status = spec.StopPrice.Decimal, "NEW"
	}

	margin := refPrice.Mul(spec.Quantity).Div(g.leverage)
	if margin.GreaterThan(g.available) {
		return nil, rejection(codeMarginInsufficient, "Margin is insufficient.")
	}
	g.available = g.available.Sub(margin)

	order := Order{
		OrderID:       g.nextID,
		ClientOrderID: spec.ClientOrderID,
		Symbol:        spec.Symbol,
		Side:          spec.Side,
		Type:          spec.Type,
		Quantity:      spec.Quantity,
		Price:         spec.Price,
		StopPrice:     spec.StopPrice,
		Status:        status,
		Margin:        margin,
		UpdateTime:    time.Now().UnixMilli(),
	}
	g.nextID++
	g.orders = append(g.orders, order)

	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oms.ErrMalformedResponse, err)
	}

	g.logger.Info(ctx, "paper order accepted",
		zap.Int64("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("status", status),
		zap.String("margin", margin.String()),
		zap.String("available", g.available.String()),
	)

	return &model.ExchangeResponse{
		OrderID:       strconv.FormatInt(order.OrderID, 10),
		ClientOrderID: order.ClientOrderID,
		Status:        status,
		Raw:           raw,
	}, nil
}

// Available returns the margin not locked by accepted orders.
func (g *Gateway) Available() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

func (g *Gateway) Orders() []Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Order(nil), g.orders...)
}

func rejection(code int, msg string) *oms.APIError {
	raw, _ := json.Marshal(map[string]interface{}{"code": code, "msg": msg})
	return &oms.APIError{Code: code, Message: msg, Raw: raw}
}
