package eventstore

import (
	"context"
	"fmt"

	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"go.uber.org/multierr"
)

type namedStore struct {
	name  string
	store Store
}

// MultiEventStore fans a record out to every sink. Append tries all sinks and
// reports every failure, so one broken sink never hides the others.
type MultiEventStore struct {
	stores []namedStore
}

func NewMultiEventStore() *MultiEventStore {
	return &MultiEventStore{}
}

func (m *MultiEventStore) Add(name string, store Store) {
	m.stores = append(m.stores, namedStore{name: name, store: store})
}

func (m *MultiEventStore) Len() int {
	return len(m.stores)
}

func (m *MultiEventStore) Append(ctx context.Context, record model.AuditRecord) error {
	var err error
	for _, s := range m.stores {
		if appendErr := s.store.Append(ctx, record); appendErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.name, appendErr))
		}
	}
	return err
}

func (m *MultiEventStore) Close() error {
	var err error
	for i := len(m.stores) - 1; i >= 0; i-- {
		err = multierr.Append(err, m.stores[i].store.Close())
	}
	return err
}
