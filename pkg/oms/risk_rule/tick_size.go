package riskrule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
)

type symbolFilter struct {
	TickSize decimal.Decimal
	StepSize decimal.Decimal
	MinQty   decimal.Decimal
}

// exchangeInfo is the subset of the futures exchangeInfo payload we read.
type exchangeInfo struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType string          `json:"filterType"`
			TickSize   decimal.Decimal `json:"tickSize"`
			StepSize   decimal.Decimal `json:"stepSize"`
			MinQty     decimal.Decimal `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

// TickSizeRule enforces PRICE_FILTER and LOT_SIZE filters per symbol.
type TickSizeRule struct {
	filters map[string]symbolFilter
}

// NewTickSizeRuleFromFile loads filters from a saved exchangeInfo response.
func NewTickSizeRuleFromFile(path string) (*TickSizeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewTickSizeRule(data)
}

func NewTickSizeRule(exchangeInfoJSON []byte) (*TickSizeRule, error) {
	var info exchangeInfo
	if err := json.Unmarshal(exchangeInfoJSON, &info); err != nil {
		return nil, fmt.Errorf("parse exchange info: %w", err)
	}

	rule := &TickSizeRule{filters: make(map[string]symbolFilter, len(info.Symbols))}
	for _, s := range info.Symbols {
		var f symbolFilter
		for _, filter := range s.Filters {
			switch filter.FilterType {
			case "PRICE_FILTER":
				f.TickSize = filter.TickSize
			case "LOT_SIZE":
				f.StepSize = filter.StepSize
				f.MinQty = filter.MinQty
			}
		}
		rule.filters[s.Symbol] = f
	}

	return rule, nil
}

func (r *TickSizeRule) Check(req model.OrderRequest) error {
	f, ok := r.filters[req.Symbol]
	if !ok { // no config -> no rule
		return nil
	}

	if f.MinQty.IsPositive() && req.Quantity.LessThan(f.MinQty) {
		return &ValidationError{
			Code:    CodeTickSize,
			Message: fmt.Sprintf("quantity %s below minimum %s for %s", req.Quantity, f.MinQty, req.Symbol),
		}
	}
	if !onStep(req.Quantity, f.StepSize) {
		return &ValidationError{
			Code:    CodeTickSize,
			Message: fmt.Sprintf("quantity %s is not a multiple of step size %s", req.Quantity, f.StepSize),
		}
	}

	var price decimal.Decimal
	switch req.Type {
	case model.OrderTypeLimit:
		price = req.Price.Decimal
	case model.OrderTypeStopMarket:
		price = req.StopPrice.Decimal
	default:
		return nil
	}
	if !onStep(price, f.TickSize) {
		return &ValidationError{
			Code:    CodeTickSize,
			Message: fmt.Sprintf("price %s is not a multiple of tick size %s", price, f.TickSize),
		}
	}

	return nil
}

func onStep(v, step decimal.Decimal) bool {
	if !step.IsPositive() {
		return true
	}
	return v.Mod(step).IsZero()
}
