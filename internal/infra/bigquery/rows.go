package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

const (
	transactionsTable = "transactions"
	groupsTable       = "transaction_groups"
)

// TransactionRow maps a ledger transaction into the <dataset>.transactions
// table. Amounts are NUMERIC; the natural key column carries a uniqueness
// guarantee enforced by the MERGE in InsertIfAbsent, not by the schema.
type TransactionRow struct {
	ID            int64               `bigquery:"id"`
	TransactionID string              `bigquery:"transaction_id"`
	Date          civil.Date          `bigquery:"transaction_date"`
	Amount        *big.Rat            `bigquery:"amount"`
	Currency      string              `bigquery:"currency"`
	Status        string              `bigquery:"status"`
	Type          string              `bigquery:"type"`
	Platform      string              `bigquery:"platform"`
	Method        string              `bigquery:"method"`
	Description   bigquery.NullString `bigquery:"description"`
	CreatedAt     time.Time           `bigquery:"created_ts"`
	UpdatedAt     time.Time           `bigquery:"updated_ts"`
}

// ToDomain converts a row back into the domain shape.
func (r *TransactionRow) ToDomain() domain.Transaction {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, 9)
	}
	return domain.Transaction{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Date:          r.Date.In(time.UTC),
		Amount:        amount,
		Currency:      r.Currency,
		Status:        domain.Status(r.Status),
		Type:          domain.Type(r.Type),
		Platform:      domain.Platform(r.Platform),
		Method:        domain.Method(r.Method),
		Description:   r.Description.StringVal,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GroupRow maps a transaction group into <dataset>.transaction_groups.
type GroupRow struct {
	GroupID        string    `bigquery:"group_id"`
	Description    string    `bigquery:"description"`
	Status         string    `bigquery:"status"`
	TransactionIDs []int64   `bigquery:"transaction_ids"`
	CreatedAt      time.Time `bigquery:"created_ts"`
	UpdatedAt      time.Time `bigquery:"updated_ts"`
}

// ToDomain converts a group row back into the domain shape.
func (r *GroupRow) ToDomain() domain.TransactionGroup {
	return domain.TransactionGroup{
		ID:             r.GroupID,
		Description:    r.Description,
		Status:         domain.GroupStatus(r.Status),
		TransactionIDs: r.TransactionIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
