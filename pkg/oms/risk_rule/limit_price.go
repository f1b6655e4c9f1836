package riskrule

import (
	"fmt"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
)

type PriceBand struct {
	Floor decimal.Decimal `yaml:"floor"`
	Ceil  decimal.Decimal `yaml:"ceil"`
}

// LimitPriceRule rejects LIMIT and STOP_MARKET prices outside a per-symbol band.
type LimitPriceRule struct {
	bands map[string]PriceBand
}

func NewLimitPriceRule(bands map[string]PriceBand) *LimitPriceRule {
	return &LimitPriceRule{bands: bands}
}

func (r *LimitPriceRule) Check(req model.OrderRequest) error {
	band, ok := r.bands[req.Symbol]
	if !ok {
		return nil
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

	if (band.Ceil.IsPositive() && price.GreaterThan(band.Ceil)) || price.LessThan(band.Floor) {
		return &ValidationError{
			Code:    CodePriceLimit,
			Message: fmt.Sprintf("price limit violation: %s outside [%s, %s]", price, band.Floor, band.Ceil),
		}
	}
	return nil
}
