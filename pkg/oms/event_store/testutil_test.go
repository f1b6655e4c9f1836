package eventstore

import (
	"time"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
)

func testRecord(seq uint64) model.AuditRecord {
	return model.NewAuditRecord(seq, time.Date(2024, 1, 1, 0, 0, int(seq), 0, time.UTC), model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.OrderSideBuy,
		Type:     model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.01"),
	}, model.OrderResult{
		Outcome:         model.OutcomePlaced,
		ExchangeOrderID: "12345",
	})
}
