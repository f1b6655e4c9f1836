package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	AuditRecord() IAuditRecord
}

type Repo struct {
	omsDB *gorm.DB
}

func NewRepo(omsDB *gorm.DB) IRepo {
	return &Repo{
		omsDB: omsDB,
	}
}

func (r *Repo) AuditRecord() IAuditRecord {
	return NewAuditRecordSQLRepo(r.omsDB)
}
