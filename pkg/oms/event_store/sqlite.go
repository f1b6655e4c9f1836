package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
)

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SQLiteEventStore appends audit records to a local WAL-mode SQLite file.
type SQLiteEventStore struct {
	db *sql.DB
}

func NewSQLiteEventStore(cfg SQLiteConfig) (*SQLiteEventStore, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			outcome TEXT NOT NULL,
			exchange_order_id TEXT,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit_records table: %w", err)
	}

	return &SQLiteEventStore{db: db}, nil
}

func (s *SQLiteEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO audit_records (id, seq, ts, symbol, outcome, exchange_order_id, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
		record.ID, record.Seq, record.Timestamp.UnixMilli(), record.Request.Symbol,
		string(record.Result.Outcome), record.Result.ExchangeOrderID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Load returns every stored record in insertion order. Seq restarts with each
// process, so rowid is the only stable ordering across runs.
func (s *SQLiteEventStore) Load(ctx context.Context) ([]model.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM audit_records ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		var record model.AuditRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteEventStore) Close() error {
	return s.db.Close()
}
