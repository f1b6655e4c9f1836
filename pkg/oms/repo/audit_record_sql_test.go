package repo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
)

func TestNewAuditRecordRow(t *testing.T) {
	record := model.AuditRecord{
		ID:        "a1",
		Seq:       7,
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Request: model.OrderRequest{
			Symbol:    "ETHUSDT",
			Side:      model.OrderSideBuy,
			Type:      model.OrderTypeStopMarket,
			Quantity:  decimal.NewFromInt(1),
			StopPrice: decimal.NewNullDecimal(decimal.NewFromInt(2500)),
		},
		Result: model.OrderResult{
			Outcome: model.OutcomeRejected,
			Error: &model.ErrorDetail{
				Kind:    model.ErrorKindBusinessRejection,
				Code:    -2019,
				Message: "insufficient margin",
			},
		},
	}

	row, err := NewAuditRecordRow(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "a1" || row.Seq != 7 || row.OrderType != "STOP_MARKET" || row.Outcome != "REJECTED" {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.ErrorCode != -2019 || row.ErrorMessage != "insufficient margin" || row.ErrorKind != "BUSINESS_REJECTION" {
		t.Errorf("error columns not flattened: %+v", row)
	}
	if row.Price.Valid || !row.StopPrice.Valid {
		t.Errorf("unexpected price columns: %+v", row)
	}

	var decoded model.AuditRecord
	if err := json.Unmarshal(row.Payload, &decoded); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if decoded.ID != record.ID || decoded.Result.Error.Message != "insufficient margin" {
		t.Errorf("payload lost data: %+v", decoded)
	}
}
