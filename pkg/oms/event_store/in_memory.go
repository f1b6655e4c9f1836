package eventstore

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"go.uber.org/zap"
)

const defaultMemoryCapacity = 1024

// UnboundedCapacity keeps every appended record.
const UnboundedCapacity = -1

type MemoryConfig struct {
	// Capacity 0 means defaultMemoryCapacity, UnboundedCapacity disables eviction.
	Capacity int `yaml:"capacity"`
}

// InMemoryEventStore keeps the most recent records in a bounded ring.
// Older records are evicted once Capacity is reached, and every eviction
// is logged at warn level.
type InMemoryEventStore struct {
	mu       sync.RWMutex
	records  deque.Deque[model.AuditRecord]
	capacity int
	total    uint64
	evicted  uint64
}

func NewInMemoryEventStore(cfg MemoryConfig) *InMemoryEventStore {
	switch {
	case cfg.Capacity < 0:
		cfg.Capacity = 0
	case cfg.Capacity == 0:
		cfg.Capacity = defaultMemoryCapacity
	}
	return &InMemoryEventStore{capacity: cfg.Capacity}
}

func (s *InMemoryEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && s.records.Len() >= s.capacity {
		dropped := s.records.PopFront()
		s.evicted++
		zap.L().Warn("in-memory audit sink full, evicting oldest record",
			zap.Uint64("evicted_seq", dropped.Seq),
			zap.String("evicted_audit_id", dropped.ID),
			zap.Int("capacity", s.capacity),
			zap.Uint64("evicted_total", s.evicted),
		)
	}
	s.records.PushBack(record)
	s.total++
	return nil
}

// Records returns the retained records, oldest first.
func (s *InMemoryEventStore) Records() []model.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AuditRecord, 0, s.records.Len())
	for i := 0; i < s.records.Len(); i++ {
		out = append(out, s.records.At(i))
	}
	return out
}

// Total counts every record ever appended, including evicted ones.
func (s *InMemoryEventStore) Total() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Evicted counts records dropped to stay within Capacity.
func (s *InMemoryEventStore) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

func (s *InMemoryEventStore) Close() error {
	return nil
}
