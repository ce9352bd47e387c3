// Package memory provides an in-memory ledger store for tests and
// single-shot runs without a database.
package memory

import (
	"context"
	"sync"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	ledger "github.com/teo1264/enel-system/internal/ledger/domain"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// LedgerStore keeps entries per period key, guarded by a RWMutex.
type LedgerStore struct {
	mu      sync.RWMutex
	periods map[string][]ledger.Entry
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{periods: make(map[string][]ledger.Entry)}
}

func (s *LedgerStore) List(_ context.Context, period invoice.BillingPeriod) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.periods[period.Key()]
	out := make([]ledger.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *LedgerStore) Append(_ context.Context, entry ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entry.Period.Key()
	for _, e := range s.periods[key] {
		if registry.NormalizeAccount(e.AccountID) == registry.NormalizeAccount(entry.AccountID) ||
			registry.NormalizeAccount(e.DocumentID) == registry.NormalizeAccount(entry.DocumentID) {
			return ledger.ErrAlreadyAccepted
		}
	}
	s.periods[key] = append(s.periods[key], entry)
	return nil
}
