package fixgateway

import (
	"fmt"
	"time"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	fix42er "github.com/quickfixgo/fix42/executionreport"
	fix42nos "github.com/quickfixgo/fix42/newordersingle"
	fix44er "github.com/quickfixgo/fix44/executionreport"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
)

const (
	BeginStringFIX42 = "FIX.4.2"
	BeginStringFIX44 = "FIX.4.4"

	qtyScale = 8

	// OrdType 3; the generated enum name differs between dictionary versions.
	ordTypeStop enum.OrdType = "3"
)

var (
	sideMapping = map[model.OrderSide]enum.Side{
		model.OrderSideBuy:  enum.Side_BUY,
		model.OrderSideSell: enum.Side_SELL,
	}

	ordTypeMapping = map[model.OrderType]enum.OrdType{
		model.OrderTypeMarket:     enum.OrdType_MARKET,
		model.OrderTypeLimit:      enum.OrdType_LIMIT,
		model.OrderTypeStopMarket: ordTypeStop,
	}

	timeInForceMapping = map[model.OrderTimeInForce]enum.TimeInForce{
		model.OrderTimeInForceGTC: enum.TimeInForce_GOOD_TILL_CANCEL,
	}

	ordStatusNames = map[enum.OrdStatus]string{
		enum.OrdStatus_NEW:              "NEW",
		enum.OrdStatus_PARTIALLY_FILLED: "PARTIALLY_FILLED",
		enum.OrdStatus_FILLED:           "FILLED",
		enum.OrdStatus_CANCELED:         "CANCELED",
		enum.OrdStatus_PENDING_NEW:      "PENDING_NEW",
		enum.OrdStatus_REJECTED:         "REJECTED",
	}
)

func ordStatusName(s enum.OrdStatus) string {
	if name, ok := ordStatusNames[s]; ok {
		return name
	}
	return string(s)
}

func newOrderSingle(beginString, account string, spec model.OrderSpec, now time.Time) (quickfix.Messagable, error) {
	side, ok := sideMapping[spec.Side]
	if !ok {
		return nil, fmt.Errorf("unsupported side %q", spec.Side)
	}
	ordType, ok := ordTypeMapping[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported order type %q", spec.Type)
	}

	switch beginString {
	case BeginStringFIX42:
		msg := fix42nos.New(
			field.NewClOrdID(spec.ClientOrderID),
			field.NewHandlInst("1"),
			field.NewSymbol(spec.Symbol),
			field.NewSide(side),
			field.NewTransactTime(now),
			field.NewOrdType(ordType),
		)
		msg.SetOrderQty(spec.Quantity, qtyScale)
		if account != "" {
			msg.SetAccount(account)
		}
		if spec.Price.Valid {
			msg.SetPrice(spec.Price.Decimal, qtyScale)
		}
		if spec.StopPrice.Valid {
			msg.SetStopPx(spec.StopPrice.Decimal, qtyScale)
		}
		if tif, ok := timeInForceMapping[spec.TimeInForce]; ok {
			msg.SetTimeInForce(tif)
		}
		return msg, nil

	case BeginStringFIX44, "":
		msg := fix44nos.New(
			field.NewClOrdID(spec.ClientOrderID),
			field.NewSide(side),
			field.NewTransactTime(now),
			field.NewOrdType(ordType),
		)
		msg.SetSymbol(spec.Symbol)
		msg.SetOrderQty(spec.Quantity, qtyScale)
		if account != "" {
			msg.SetAccount(account)
		}
		if spec.Price.Valid {
			msg.SetPrice(spec.Price.Decimal, qtyScale)
		}
		if spec.StopPrice.Valid {
			msg.SetStopPx(spec.StopPrice.Decimal, qtyScale)
		}
		if tif, ok := timeInForceMapping[spec.TimeInForce]; ok {
			msg.SetTimeInForce(tif)
		}
		return msg, nil
	}

	return nil, fmt.Errorf("unsupported begin string %q", beginString)
}

func fromFix44Report(msg fix44er.ExecutionReport) executionReport {
	clOrdID, _ := msg.GetClOrdID()
	orderID, _ := msg.GetOrderID()
	execType, _ := msg.GetExecType()
	ordStatus, _ := msg.GetOrdStatus()
	rejReason, _ := msg.GetOrdRejReason()
	text, _ := msg.GetText()

	return executionReport{
		ClOrdID:      clOrdID,
		OrderID:      orderID,
		ExecType:     string(execType),
		OrdStatus:    ordStatusName(ordStatus),
		RejectReason: string(rejReason),
		Text:         text,
		Rejected:     execType == enum.ExecType_REJECTED || ordStatus == enum.OrdStatus_REJECTED,
		Raw:          msg.Message.String(),
	}
}

func fromFix42Report(msg fix42er.ExecutionReport) executionReport {
	clOrdID, _ := msg.GetClOrdID()
	orderID, _ := msg.GetOrderID()
	execType, _ := msg.GetExecType()
	ordStatus, _ := msg.GetOrdStatus()
	rejReason, _ := msg.GetOrdRejReason()
	text, _ := msg.GetText()

	return executionReport{
		ClOrdID:      clOrdID,
		OrderID:      orderID,
		ExecType:     string(execType),
		OrdStatus:    ordStatusName(ordStatus),
		RejectReason: string(rejReason),
		Text:         text,
		Rejected:     execType == enum.ExecType_REJECTED || ordStatus == enum.OrdStatus_REJECTED,
		Raw:          msg.Message.String(),
	}
}
