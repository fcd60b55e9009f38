package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Edits are the optional field changes that may accompany a status
// transition. They apply only while the transaction's current status is
// editable (NEW or PENDING).
type Edits struct {
	Description *string
	Amount      *decimal.Decimal
}

// Store is the canonical ledger. InsertIfAbsent is the only write path for
// new records: it must be atomic per natural key under concurrent callers,
// with exactly one winner when two callers race on the same key. There is no
// upsert and no overwrite.
type Store interface {
	// InsertIfAbsent inserts tx keyed by its TransactionID. The bool reports
	// whether the record was inserted; false means a transaction with that
	// natural key already exists and nothing changed. A duplicate is a normal
	// steady-state outcome, not an error.
	InsertIfAbsent(ctx context.Context, tx domain.Transaction) (domain.Transaction, bool, error)

	// FindByKey returns the transaction with the given natural key, or
	// domain.ErrNotFound.
	FindByKey(ctx context.Context, naturalKey string) (*domain.Transaction, error)

	// Get returns the transaction with the given numeric id, or
	// domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Transaction, error)

	// UpdateStatus applies a lifecycle transition, optionally with edits.
	// Illegal transitions return domain.ErrIllegalTransition and leave the
	// record untouched.
	UpdateStatus(ctx context.Context, id int64, status domain.Status, edits *Edits) (*domain.Transaction, error)

	// Count returns the total number of transactions in the ledger.
	Count(ctx context.Context) (int, error)
}

// ApplyTransition validates and applies a status change (plus optional edits)
// to a copy of tx. Every Store implementation funnels UpdateStatus through
// this so the state machine lives in exactly one place. The input transaction
// is never mutated.
func ApplyTransition(tx domain.Transaction, status domain.Status, edits *Edits, now time.Time) (domain.Transaction, error) {
	if !domain.ValidStatus(status) {
		return tx, domain.ErrIllegalTransition
	}
	if !domain.CanTransition(tx.Status, status) {
		return tx, domain.ErrIllegalTransition
	}
	if edits != nil && (edits.Description != nil || edits.Amount != nil) && !domain.Editable(tx.Status) {
		return tx, domain.ErrIllegalTransition
	}

	updated := tx
	updated.Status = status
	if edits != nil {
		if edits.Description != nil {
			updated.Description = *edits.Description
		}
		if edits.Amount != nil {
			if !edits.Amount.IsPositive() {
				return tx, domain.ErrIllegalTransition
			}
			updated.Amount = *edits.Amount
		}
	}
	updated.UpdatedAt = now
	return updated, nil
}
