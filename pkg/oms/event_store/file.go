package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// FileEventStore writes one JSON document per line to a size-rotated file.
type FileEventStore struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

func NewFileEventStore(cfg FileConfig) (*FileEventStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file audit sink: empty path")
	}
	return &FileEventStore{
		w: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}, nil
}

func (s *FileEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

func (s *FileEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
