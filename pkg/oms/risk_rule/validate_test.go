package riskrule

import (
	"errors"
	"testing"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
)

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestValidateMarketIgnoresPrices(t *testing.T) {
	prices := []decimal.NullDecimal{{}, nullDec("0"), nullDec("-5"), nullDec("100")}
	for _, price := range prices {
		for _, stop := range prices {
			req := model.OrderRequest{
				Symbol:    "BTCUSDT",
				Side:      model.OrderSideBuy,
				Type:      model.OrderTypeMarket,
				Quantity:  decimal.RequireFromString("0.01"),
				Price:     price,
				StopPrice: stop,
			}
			if err := Validate(req); err != nil {
				t.Errorf("market order with price=%v stop=%v should pass, got %v", price, stop, err)
			}
		}
	}
}

func TestValidateMarketRequiredFields(t *testing.T) {
	base := model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.OrderSideSell,
		Type:     model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.01"),
	}

	noSymbol := base
	noSymbol.Symbol = "  "
	badSide := base
	badSide.Side = "HOLD"
	zeroQty := base
	zeroQty.Quantity = decimal.Zero
	negQty := base
	negQty.Quantity = decimal.NewFromInt(-1)

	cases := map[string]struct {
		req  model.OrderRequest
		code ValidationCode
	}{
		"empty symbol":      {noSymbol, CodeMissingSymbol},
		"unknown side":      {badSide, CodeInvalidSide},
		"zero quantity":     {zeroQty, CodeInvalidQuantity},
		"negative quantity": {negQty, CodeInvalidQuantity},
	}
	for name, c := range cases {
		err := Validate(c.req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
		if verr.Code != c.code {
			t.Errorf("%s: expected code %s, got %s", name, c.code, verr.Code)
		}
	}
}

func TestValidateLimitPrice(t *testing.T) {
	req := model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.OrderSideSell,
		Type:     model.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.01"),
	}

	err := Validate(req)
	if !errors.Is(err, ErrMissingPrice) {
		t.Fatalf("expected missing price error, got %v", err)
	}
	if err.Error() != "missing price for LIMIT order" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	for _, p := range []string{"0", "-1"} {
		req.Price = nullDec(p)
		if err := Validate(req); err == nil {
			t.Errorf("price %s should be rejected", p)
		}
	}

	req.Price = nullDec("65000.5")
	req.StopPrice = nullDec("-3") // ignored for LIMIT
	if err := Validate(req); err != nil {
		t.Errorf("valid limit order rejected: %v", err)
	}
}

func TestValidateStopMarketStopPrice(t *testing.T) {
	req := model.OrderRequest{
		Symbol:   "ETHUSDT",
		Side:     model.OrderSideBuy,
		Type:     model.OrderTypeStopMarket,
		Quantity: decimal.NewFromInt(1),
		Price:    nullDec("2400"),
	}

	if err := Validate(req); !errors.Is(err, ErrMissingStopPrice) {
		t.Fatalf("expected missing stop price error, got %v", err)
	}

	req.StopPrice = nullDec("0")
	if err := Validate(req); err == nil {
		t.Errorf("zero stop price should be rejected")
	}

	req.StopPrice = nullDec("2500")
	if err := Validate(req); err != nil {
		t.Errorf("valid stop market order rejected: %v", err)
	}
}

func TestValidateUnsupportedOrderType(t *testing.T) {
	req := model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.OrderSideBuy,
		Type:     model.OrderType("TRAILING_STOP_MARKET"),
		Quantity: decimal.NewFromInt(1),
	}
	for i := 0; i < 3; i++ {
		if err := Validate(req); !errors.Is(err, ErrUnsupportedOrderType) {
			t.Fatalf("expected unsupported order type, got %v", err)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	reqs := []model.OrderRequest{
		{Symbol: "BTCUSDT", Side: model.OrderSideBuy, Type: model.OrderTypeMarket, Quantity: decimal.RequireFromString("0.01")},
		{Symbol: "BTCUSDT", Side: model.OrderSideSell, Type: model.OrderTypeLimit, Quantity: decimal.RequireFromString("0.01")},
	}
	for _, req := range reqs {
		first, second := Validate(req), Validate(req)
		if (first == nil) != (second == nil) {
			t.Fatalf("validate not idempotent: %v vs %v", first, second)
		}
		if first != nil && first.Error() != second.Error() {
			t.Errorf("validate not idempotent: %v vs %v", first, second)
		}
	}
}

func TestValidatorRunsRulesAfterBaseChecks(t *testing.T) {
	called := 0
	v := NewValidator(ruleFunc(func(model.OrderRequest) error {
		called++
		return nil
	}))

	bad := model.OrderRequest{Symbol: "BTCUSDT", Side: model.OrderSideBuy, Type: model.OrderTypeLimit, Quantity: decimal.NewFromInt(1)}
	if err := v.Validate(bad); err == nil {
		t.Fatalf("expected base validation failure")
	}
	if called != 0 {
		t.Errorf("rules must not run when base checks fail")
	}

	bad.Price = nullDec("10")
	if err := v.Validate(bad); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 1 {
		t.Errorf("expected rule to run once, ran %d", called)
	}
}

type ruleFunc func(model.OrderRequest) error

func (f ruleFunc) Check(req model.OrderRequest) error { return f(req) }
