package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
)

var (
	// ErrInsufficientMembers signals a create request with fewer than two
	// distinct transaction ids.
	ErrInsufficientMembers = errors.New("group needs at least two distinct transactions")

	// ErrAlreadyGrouped signals that a requested member already belongs to an
	// open group. A transaction may sit in at most one open group at a time.
	ErrAlreadyGrouped = errors.New("transaction already belongs to an open group")

	// ErrUnknownTransaction signals a member id with no ledger entry.
	ErrUnknownTransaction = errors.New("transaction does not exist")

	// ErrEmptyDescription signals a create request without a description.
	ErrEmptyDescription = errors.New("group description must not be empty")
)

// Store persists transaction groups.
type Store interface {
	Insert(ctx context.Context, group domain.TransactionGroup) error
	Get(ctx context.Context, id string) (*domain.TransactionGroup, error)
	Update(ctx context.Context, group domain.TransactionGroup) error
	// FindOpenByMember returns the open group containing the transaction id,
	// or domain.ErrNotFound.
	FindOpenByMember(ctx context.Context, txID int64) (*domain.TransactionGroup, error)
}

// UpdatePatch carries the optional fields of an update request. Status is
// restricted to OPEN -> RESOLVED or OPEN -> CANCELLED.
type UpdatePatch struct {
	Description *string
	Status      *domain.GroupStatus
}

// Service is the grouping engine. It treats transaction ids as weak foreign
// references into the ledger: members are looked up, never copied or mutated.
type Service struct {
	store  Store
	ledger ledger.Store
}

// NewService creates a grouping engine over the given stores.
func NewService(store Store, ledgerStore ledger.Store) *Service {
	return &Service{store: store, ledger: ledgerStore}
}

// Create links two or more existing transactions under a new OPEN group.
// Membership is immutable after creation; re-grouping means cancelling and
// recreating.
func (s *Service) Create(ctx context.Context, description string, txIDs []int64) (*domain.TransactionGroup, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	distinct := dedupeIDs(txIDs)
	if len(distinct) < 2 {
		return nil, ErrInsufficientMembers
	}

	for _, id := range distinct {
		if _, err := s.ledger.Get(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("transaction %d: %w", id, ErrUnknownTransaction)
			}
			return nil, fmt.Errorf("looking up transaction %d: %w", id, err)
		}
		if _, err := s.store.FindOpenByMember(ctx, id); err == nil {
			return nil, fmt.Errorf("transaction %d: %w", id, ErrAlreadyGrouped)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("checking open groups for %d: %w", id, err)
		}
	}

	now := time.Now()
	group := domain.TransactionGroup{
		ID:             uuid.NewString(),
		Description:    strings.TrimSpace(description),
		Status:         domain.GroupOpen,
		TransactionIDs: distinct,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Insert(ctx, group); err != nil {
		return nil, fmt.Errorf("inserting group: %w", err)
	}
	return &group, nil
}

// Update applies a description and/or status patch. Status may only move out
// of OPEN, and only to RESOLVED or CANCELLED; the description is editable
// while the group is OPEN.
func (s *Service) Update(ctx context.Context, groupID string, patch UpdatePatch) (*domain.TransactionGroup, error) {
	group, err := s.store.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		if !domain.ValidGroupStatus(*patch.Status) || !domain.CanTransitionGroup(group.Status, *patch.Status) {
			return nil, domain.ErrIllegalTransition
		}
	}
	if patch.Description != nil {
		if group.Status != domain.GroupOpen {
			return nil, domain.ErrIllegalTransition
		}
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, ErrEmptyDescription
		}
	}

	updated := *group
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	updated.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("updating group %s: %w", groupID, err)
	}
	return &updated, nil
}

// Get returns a group by id.
func (s *Service) Get(ctx context.Context, groupID string) (*domain.TransactionGroup, error) {
	return s.store.Get(ctx, groupID)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
