package riskrule

import "github.com/joripage/futures-order-bot/pkg/oms/model"

// RiskRule is an extra pre-flight check run after the order type checks.
// Implementations must be pure: no I/O once constructed.
type RiskRule interface {
	Check(req model.OrderRequest) error
}

type ValidationCode string

const (
	CodeMissingSymbol        ValidationCode = "MISSING_SYMBOL"
	CodeInvalidSide          ValidationCode = "INVALID_SIDE"
	CodeInvalidQuantity      ValidationCode = "INVALID_QUANTITY"
	CodeMissingPrice         ValidationCode = "MISSING_PRICE"
	CodeInvalidPrice         ValidationCode = "INVALID_PRICE"
	CodeMissingStopPrice     ValidationCode = "MISSING_STOP_PRICE"
	CodeInvalidStopPrice     ValidationCode = "INVALID_STOP_PRICE"
	CodeUnsupportedOrderType ValidationCode = "UNSUPPORTED_ORDER_TYPE"
	CodeTickSize             ValidationCode = "TICK_SIZE"
	CodePriceLimit           ValidationCode = "PRICE_LIMIT"
)

type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches on Code so callers can use the sentinels below with errors.Is.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrUnsupportedOrderType = &ValidationError{Code: CodeUnsupportedOrderType}
	ErrMissingPrice         = &ValidationError{Code: CodeMissingPrice}
	ErrMissingStopPrice     = &ValidationError{Code: CodeMissingStopPrice}
)

// Validator runs Validate followed by the configured rules.
type Validator struct {
	rules []RiskRule
}

func NewValidator(rules ...RiskRule) *Validator {
	return &Validator{rules: rules}
}

func (v *Validator) Validate(req model.OrderRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	for _, rule := range v.rules {
		if err := rule.Check(req); err != nil {
			return err
		}
	}
	return nil
}
