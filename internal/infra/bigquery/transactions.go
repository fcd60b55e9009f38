package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
)

// Store is the BigQuery-backed canonical ledger. Insert-if-absent runs as a
// single MERGE statement so two callers racing on the same natural key see
// exactly one winner; there is no check-then-insert window.
type Store struct {
	client  *bigquery.Client
	dataset string
}

// NewStore creates a ledger store over <project>.<dataset>.
func NewStore(ctx context.Context, project, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Store{client: client, dataset: dataset}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// InsertIfAbsent implements ledger.Store.
func (s *Store) InsertIfAbsent(ctx context.Context, tx domain.Transaction) (domain.Transaction, bool, error) {
	if tx.TransactionID == "" {
		return domain.Transaction{}, false, fmt.Errorf("insert: empty natural key")
	}

	now := time.Now()
	tx.ID = now.UnixNano()
	tx.Status = domain.StatusNew
	tx.CreatedAt = now
	tx.UpdatedAt = now

	q := s.client.Query(fmt.Sprintf(`
		MERGE %s.%s t
		USING (SELECT @transaction_id AS transaction_id) s
		ON t.transaction_id = s.transaction_id
		WHEN NOT MATCHED THEN
		  INSERT (id, transaction_id, transaction_date, amount, currency,
		          status, type, platform, method, description, created_ts, updated_ts)
		  VALUES (@id, @transaction_id, @transaction_date, @amount, @currency,
		          @status, @type, @platform, @method, @description, @now, @now)
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: tx.ID},
		{Name: "transaction_id", Value: tx.TransactionID},
		{Name: "transaction_date", Value: civil.DateOf(tx.Date)},
		{Name: "amount", Value: tx.Amount.Rat()},
		{Name: "currency", Value: tx.Currency},
		{Name: "status", Value: string(tx.Status)},
		{Name: "type", Value: string(tx.Type)},
		{Name: "platform", Value: string(tx.Platform)},
		{Name: "method", Value: string(tx.Method)},
		{Name: "description", Value: tx.Description},
		{Name: "now", Value: now},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return domain.Transaction{}, false, fmt.Errorf("InsertIfAbsent %s: %w", tx.TransactionID, err)
	}

	if affected == 0 {
		existing, err := s.FindByKey(ctx, tx.TransactionID)
		if err != nil {
			return domain.Transaction{}, false, fmt.Errorf("InsertIfAbsent %s: reading duplicate: %w", tx.TransactionID, err)
		}
		return *existing, false, nil
	}
	return tx, true, nil
}

// FindByKey implements ledger.Store.
func (s *Store) FindByKey(ctx context.Context, naturalKey string) (*domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(
		"SELECT * FROM %s.%s WHERE transaction_id = @transaction_id", s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: naturalKey},
	}
	return s.queryOne(ctx, q, naturalKey)
}

// Get implements ledger.Store.
func (s *Store) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(
		"SELECT * FROM %s.%s WHERE id = @id", s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
	}
	return s.queryOne(ctx, q, fmt.Sprintf("id %d", id))
}

// UpdateStatus implements ledger.Store. The transition is validated against
// the current row, then applied with the old status in the WHERE clause so a
// concurrent transition of the same record cannot be overwritten silently.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.Status, edits *ledger.Edits) (*domain.Transaction, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := ledger.ApplyTransition(*current, status, edits, time.Now())
	if err != nil {
		return nil, err
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, description = @description, amount = @amount, updated_ts = @updated_ts
		WHERE id = @id AND status = @old_status
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(updated.Status)},
		{Name: "description", Value: updated.Description},
		{Name: "amount", Value: updated.Amount.Rat()},
		{Name: "updated_ts", Value: updated.UpdatedAt},
		{Name: "id", Value: id},
		{Name: "old_status", Value: string(current.Status)},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("UpdateStatus id %d: %w", id, err)
	}
	if affected == 0 {
		// The row moved under us; the caller sees it as an illegal transition
		// against the new state.
		return nil, domain.ErrIllegalTransition
	}
	return &updated, nil
}

// Count implements ledger.Store.
func (s *Store) Count(ctx context.Context) (int, error) {
	q := s.client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM %s.%s", s.dataset, transactionsTable))
	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("Count: query read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("Count: iter next: %w", err)
	}
	return int(row.N), nil
}

func (s *Store) queryOne(ctx context.Context, q *bigquery.Query, what string) (*domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: iter next: %w", what, err)
	}

	tx := row.ToDomain()
	return &tx, nil
}

// runDML runs a DML query and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

var _ ledger.Store = (*Store)(nil)
