package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseOrderSide(t *testing.T) {
	for in, want := range map[string]OrderSide{
		"BUY":   OrderSideBuy,
		"sell":  OrderSideSell,
		" Buy ": OrderSideBuy,
	} {
		got, err := ParseOrderSide(in)
		if err != nil {
			t.Fatalf("ParseOrderSide(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseOrderSide(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseOrderSide("HOLD"); err == nil {
		t.Errorf("expected error for unknown side")
	}
}

func TestParseOrderType(t *testing.T) {
	got, err := ParseOrderType("stop_market")
	if err != nil || got != OrderTypeStopMarket {
		t.Fatalf("ParseOrderType(stop_market) = %s, %v", got, err)
	}

	if _, err := ParseOrderType("ICEBERG"); err == nil {
		t.Errorf("expected error for unsupported type")
	}
}

func TestTimeInForceOnlyForRestingTypes(t *testing.T) {
	cases := map[OrderType]OrderTimeInForce{
		OrderTypeMarket:     OrderTimeInForceNone,
		OrderTypeLimit:      OrderTimeInForceGTC,
		OrderTypeStopMarket: OrderTimeInForceGTC,
	}
	for orderType, want := range cases {
		req := OrderRequest{Type: orderType}
		if got := req.TimeInForce(); got != want {
			t.Errorf("%s: expected tif %q, got %q", orderType, want, got)
		}
	}
}

func TestNewOrderSpecDropsUnusedPrices(t *testing.T) {
	price := decimal.NewNullDecimal(decimal.NewFromInt(100))
	stop := decimal.NewNullDecimal(decimal.NewFromInt(90))

	market := NewOrderSpec("c1", OrderRequest{
		Symbol: "BTCUSDT", Side: OrderSideBuy, Type: OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.01"), Price: price, StopPrice: stop,
	})
	if market.Price.Valid || market.StopPrice.Valid || market.TimeInForce != OrderTimeInForceNone {
		t.Errorf("market spec should carry no price, stop price or tif: %+v", market)
	}

	limit := NewOrderSpec("c2", OrderRequest{
		Symbol: "BTCUSDT", Side: OrderSideSell, Type: OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.01"), Price: price, StopPrice: stop,
	})
	if !limit.Price.Valid || limit.StopPrice.Valid || limit.TimeInForce != OrderTimeInForceGTC {
		t.Errorf("unexpected limit spec: %+v", limit)
	}

	stopMarket := NewOrderSpec("c3", OrderRequest{
		Symbol: "ETHUSDT", Side: OrderSideBuy, Type: OrderTypeStopMarket,
		Quantity: decimal.NewFromInt(1), Price: price, StopPrice: stop,
	})
	if stopMarket.Price.Valid || !stopMarket.StopPrice.Valid || stopMarket.TimeInForce != OrderTimeInForceGTC {
		t.Errorf("unexpected stop market spec: %+v", stopMarket)
	}
	if stopMarket.ClientOrderID != "c3" {
		t.Errorf("expected client order id c3, got %s", stopMarket.ClientOrderID)
	}
}
