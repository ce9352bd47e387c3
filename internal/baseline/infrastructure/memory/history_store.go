// Package memory provides an in-memory history store for tests and
// database-free runs.
package memory

import (
	"context"
	"sync"

	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// HistoryStore keeps per-account points guarded by a RWMutex.
type HistoryStore struct {
	mu       sync.RWMutex
	accounts map[string][]baseline.Point
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{accounts: make(map[string][]baseline.Point)}
}

func (s *HistoryStore) Load(_ context.Context, accountID string) (*baseline.History, error) {
	account := registry.NormalizeAccount(accountID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return baseline.NewHistory(account, s.accounts[account]), nil
}

func (s *HistoryStore) Record(_ context.Context, accountID string, p baseline.Point) error {
	account := registry.NormalizeAccount(accountID)
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.accounts[account]
	for i := range points {
		if points[i].Period == p.Period {
			points[i] = p
			return nil
		}
	}
	s.accounts[account] = append(points, p)
	return nil
}
