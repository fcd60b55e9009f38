package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/groups"
)

// GroupStore is the BigQuery-backed group store. It shares the ledger
// store's client.
type GroupStore struct {
	client  *bigquery.Client
	dataset string
}

// Groups returns a group store sharing this ledger store's client.
func (s *Store) Groups() *GroupStore {
	return &GroupStore{client: s.client, dataset: s.dataset}
}

// Insert implements groups.Store.
func (g *GroupStore) Insert(ctx context.Context, group domain.TransactionGroup) error {
	q := g.client.Query(fmt.Sprintf(`
		INSERT %s.%s (group_id, description, status, transaction_ids, created_ts, updated_ts)
		VALUES (@group_id, @description, @status, @transaction_ids, @created_ts, @updated_ts)
	`, g.dataset, groupsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "group_id", Value: group.ID},
		{Name: "description", Value: group.Description},
		{Name: "status", Value: string(group.Status)},
		{Name: "transaction_ids", Value: group.TransactionIDs},
		{Name: "created_ts", Value: group.CreatedAt},
		{Name: "updated_ts", Value: group.UpdatedAt},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("inserting group %s: %w", group.ID, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("inserting group %s: waiting: %w", group.ID, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("inserting group %s: job error: %w", group.ID, err)
	}
	return nil
}

// Get implements groups.Store.
func (g *GroupStore) Get(ctx context.Context, id string) (*domain.TransactionGroup, error) {
	q := g.client.Query(fmt.Sprintf(
		"SELECT * FROM %s.%s WHERE group_id = @group_id", g.dataset, groupsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "group_id", Value: id},
	}
	return g.queryOne(ctx, q, id)
}

// Update implements groups.Store.
func (g *GroupStore) Update(ctx context.Context, group domain.TransactionGroup) error {
	q := g.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET description = @description, status = @status, updated_ts = @updated_ts
		WHERE group_id = @group_id
	`, g.dataset, groupsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "description", Value: group.Description},
		{Name: "status", Value: string(group.Status)},
		{Name: "updated_ts", Value: group.UpdatedAt},
		{Name: "group_id", Value: group.ID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("updating group %s: %w", group.ID, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("updating group %s: waiting: %w", group.ID, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("updating group %s: job error: %w", group.ID, err)
	}
	return nil
}

// FindOpenByMember implements groups.Store.
func (g *GroupStore) FindOpenByMember(ctx context.Context, txID int64) (*domain.TransactionGroup, error) {
	q := g.client.Query(fmt.Sprintf(`
		SELECT * FROM %s.%s
		WHERE status = 'OPEN' AND @tx_id IN UNNEST(transaction_ids)
	`, g.dataset, groupsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "tx_id", Value: txID},
	}
	return g.queryOne(ctx, q, fmt.Sprintf("open group for %d", txID))
}

func (g *GroupStore) queryOne(ctx context.Context, q *bigquery.Query, what string) (*domain.TransactionGroup, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query group %s: %w", what, err)
	}

	var row GroupRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("group %s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query group %s: iter next: %w", what, err)
	}

	group := row.ToDomain()
	return &group, nil
}

var _ groups.Store = (*GroupStore)(nil)
