package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord captures one Submit call. It is never mutated after creation.
type AuditRecord struct {
	ID        string       `json:"id"`
	Seq       uint64       `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Request   OrderRequest `json:"request"`
	Result    OrderResult  `json:"result"`
}

func NewAuditRecord(seq uint64, ts time.Time, req OrderRequest, result OrderResult) AuditRecord {
	return AuditRecord{
		ID:        uuid.NewString(),
		Seq:       seq,
		Timestamp: ts,
		Request:   req,
		Result:    result,
	}
}
