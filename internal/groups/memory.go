package groups

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Memory is an in-memory group store, safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]*domain.TransactionGroup
}

// NewMemory creates an empty in-memory group store.
func NewMemory() *Memory {
	return &Memory{groups: make(map[string]*domain.TransactionGroup)}
}

func (m *Memory) Insert(ctx context.Context, group domain.TransactionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[group.ID]; ok {
		return fmt.Errorf("group %s already exists", group.ID)
	}
	cp := group
	m.groups[group.ID] = &cp
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*domain.TransactionGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	group, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	cp := *group
	return &cp, nil
}

func (m *Memory) Update(ctx context.Context, group domain.TransactionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[group.ID]; !ok {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrNotFound)
	}
	cp := group
	m.groups[group.ID] = &cp
	return nil
}

func (m *Memory) FindOpenByMember(ctx context.Context, txID int64) (*domain.TransactionGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, group := range m.groups {
		if group.Status == domain.GroupOpen && group.Contains(txID) {
			cp := *group
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no open group for transaction %d: %w", txID, domain.ErrNotFound)
}

var _ Store = (*Memory)(nil)
