// Package memory provides an in-memory implementation of the finance and user
// stores. It is safe for concurrent use and intended for tests and local
// development; data is lost on restart.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/numa-labs/numa/internal/finance"
)

// Store keeps transactions in a map guarded by a mutex. The mutex also makes
// UpdateIfProvisional an atomic read-modify-write, which is what prevents two
// concurrent verifications of the same id from both succeeding.
type Store struct {
	mu  sync.RWMutex
	txs map[string]*finance.Transaction
}

// NewStore creates an empty in-memory transaction store.
func NewStore() *Store {
	return &Store{txs: make(map[string]*finance.Transaction)}
}

// CreateTransaction implements finance.Store.
func (s *Store) CreateTransaction(ctx context.Context, tx *finance.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

// GetTransaction implements finance.Store.
func (s *Store) GetTransaction(ctx context.Context, id string) (*finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, finance.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// UpdateIfProvisional implements finance.Store.
func (s *Store) UpdateIfProvisional(ctx context.Context, tx *finance.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.txs[tx.ID]
	if !ok {
		return finance.ErrNotFound
	}
	if stored.Status != finance.StatusProvisional {
		return finance.ErrInvalidState
	}
	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

// ListTransactions implements finance.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string, f finance.Filter) ([]*finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*finance.Transaction
	for _, tx := range s.txs {
		if tx.UserID != userID || !matches(tx, f) {
			continue
		}
		cp := *tx
		result = append(result, &cp)
	}
	return result, nil
}

// SummarizeTransactions implements finance.Store.
func (s *Store) SummarizeTransactions(ctx context.Context, userID string, f finance.Filter) (finance.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum finance.Summary
	for _, tx := range s.txs {
		if tx.UserID != userID || !matches(tx, f) {
			continue
		}
		sum.Total += tx.Amount
		sum.Count++
	}
	return sum, nil
}

func matches(tx *finance.Transaction, f finance.Filter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if tx.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Category != "" && (tx.Category == nil || !strings.EqualFold(*tx.Category, f.Category)) {
		return false
	}
	if f.Merchant != "" && (tx.Merchant == nil || !strings.EqualFold(*tx.Merchant, f.Merchant)) {
		return false
	}
	if f.StartDate != nil && tx.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

var _ finance.Store = (*Store)(nil)
