package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Memory is an in-memory Store. It is safe for concurrent use and is the
// implementation used in tests and single-process development runs; data is
// lost on restart. Insert-if-absent atomicity comes from holding the write
// lock across the existence check and the insert.
type Memory struct {
	mu     sync.RWMutex
	byKey  map[string]*domain.Transaction
	byID   map[int64]*domain.Transaction
	nextID int64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		byKey:  make(map[string]*domain.Transaction),
		byID:   make(map[int64]*domain.Transaction),
		nextID: 1,
	}
}

// InsertIfAbsent implements Store.
func (m *Memory) InsertIfAbsent(ctx context.Context, tx domain.Transaction) (domain.Transaction, bool, error) {
	if tx.TransactionID == "" {
		return domain.Transaction{}, false, fmt.Errorf("insert: empty natural key")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byKey[tx.TransactionID]; ok {
		return *existing, false, nil
	}

	now := time.Now()
	tx.ID = m.nextID
	m.nextID++
	tx.Status = domain.StatusNew
	tx.CreatedAt = now
	tx.UpdatedAt = now

	stored := tx
	m.byKey[tx.TransactionID] = &stored
	m.byID[tx.ID] = &stored
	return tx, true, nil
}

// FindByKey implements Store.
func (m *Memory) FindByKey(ctx context.Context, naturalKey string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.byKey[naturalKey]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", naturalKey, domain.ErrNotFound)
	}
	cp := *tx
	return &cp, nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, domain.ErrNotFound)
	}
	cp := *tx
	return &cp, nil
}

// UpdateStatus implements Store.
func (m *Memory) UpdateStatus(ctx context.Context, id int64, status domain.Status, edits *Edits) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, domain.ErrNotFound)
	}

	updated, err := ApplyTransition(*tx, status, edits, time.Now())
	if err != nil {
		return nil, err
	}

	*tx = updated
	cp := updated
	return &cp, nil
}

// Count implements Store.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey), nil
}

var _ Store = (*Memory)(nil)
