package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRecordRow is the flattened audit_records table row.
type AuditRecordRow struct {
	ID              string              `gorm:"column:id;primaryKey"`
	Seq             uint64              `gorm:"column:seq"`
	Ts              time.Time           `gorm:"column:ts"`
	Symbol          string              `gorm:"column:symbol"`
	Side            string              `gorm:"column:side"`
	OrderType       string              `gorm:"column:order_type"`
	Quantity        decimal.Decimal     `gorm:"column:quantity"`
	Price           decimal.NullDecimal `gorm:"column:price"`
	StopPrice       decimal.NullDecimal `gorm:"column:stop_price"`
	Outcome         string              `gorm:"column:outcome"`
	ExchangeOrderID string              `gorm:"column:exchange_order_id"`
	ClientOrderID   string              `gorm:"column:client_order_id"`
	ErrorKind       string              `gorm:"column:error_kind"`
	ErrorCode       int                 `gorm:"column:error_code"`
	ErrorMessage    string              `gorm:"column:error_message"`
	Payload         []byte              `gorm:"column:payload"`
}

func (AuditRecordRow) TableName() string {
	return "audit_records"
}

func NewAuditRecordRow(record model.AuditRecord) (AuditRecordRow, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return AuditRecordRow{}, err
	}

	row := AuditRecordRow{
		ID:              record.ID,
		Seq:             record.Seq,
		Ts:              record.Timestamp,
		Symbol:          record.Request.Symbol,
		Side:            string(record.Request.Side),
		OrderType:       string(record.Request.Type),
		Quantity:        record.Request.Quantity,
		Price:           record.Request.Price,
		StopPrice:       record.Request.StopPrice,
		Outcome:         string(record.Result.Outcome),
		ExchangeOrderID: record.Result.ExchangeOrderID,
		ClientOrderID:   record.Result.ClientOrderID,
		Payload:         payload,
	}
	if e := record.Result.Error; e != nil {
		row.ErrorKind = string(e.Kind)
		row.ErrorCode = e.Code
		row.ErrorMessage = e.Message
	}
	return row, nil
}

type AuditRecordSQLRepo struct {
	db *gorm.DB
}

func NewAuditRecordSQLRepo(db *gorm.DB) *AuditRecordSQLRepo {
	return &AuditRecordSQLRepo{
		db: db,
	}
}

func (r *AuditRecordSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Create inserts one record. Redelivered records with a known id are ignored.
func (r *AuditRecordSQLRepo) Create(ctx context.Context, record model.AuditRecord) error {
	row, err := NewAuditRecordRow(record)
	if err != nil {
		return err
	}
	return r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *AuditRecordSQLRepo) BulkCreate(ctx context.Context, records []model.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]AuditRecordRow, 0, len(records))
	for _, record := range records {
		row, err := NewAuditRecordRow(record)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
