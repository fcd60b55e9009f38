package groups

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
)

func setup(t *testing.T) (*Service, []int64) {
	t.Helper()
	ctx := context.Background()
	ledgerStore := ledger.NewMemory()

	var ids []int64
	for _, key := range []string{"TRADE_1", "TRADE_2", "TRADE_3"} {
		tx, _, err := ledgerStore.InsertIfAbsent(ctx, domain.Transaction{
			TransactionID: key,
			Date:          time.Now(),
			Amount:        decimal.RequireFromString("10.00"),
			Currency:      "USD",
			Type:          domain.TypeTransfer,
			Platform:      domain.PlatformBinance,
			Method:        domain.MethodP2P,
		})
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	return NewService(NewMemory(), ledgerStore), ids
}

func TestCreate_Succeeds(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	group, err := svc.Create(ctx, "transfer legs", ids[:2])
	require.NoError(t, err)
	assert.Equal(t, domain.GroupOpen, group.Status)
	assert.Equal(t, ids[:2], group.TransactionIDs)
	assert.NotEmpty(t, group.ID)
}

func TestCreate_InsufficientMembers(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	_, err := svc.Create(ctx, "solo", ids[:1])
	assert.ErrorIs(t, err, ErrInsufficientMembers)

	// Duplicated ids collapse to one member.
	_, err = svc.Create(ctx, "same twice", []int64{ids[0], ids[0]})
	assert.ErrorIs(t, err, ErrInsufficientMembers)
}

func TestCreate_EmptyDescription(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	_, err := svc.Create(ctx, "   ", ids[:2])
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestCreate_UnknownTransaction(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	_, err := svc.Create(ctx, "ghost member", []int64{ids[0], 9999})
	assert.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestCreate_AlreadyGrouped(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	_, err := svc.Create(ctx, "first group", ids[:2])
	require.NoError(t, err)

	_, err = svc.Create(ctx, "second group", []int64{ids[1], ids[2]})
	assert.ErrorIs(t, err, ErrAlreadyGrouped)
}

func TestCreate_AfterCancellationAllowed(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	group, err := svc.Create(ctx, "first", ids[:2])
	require.NoError(t, err)

	cancelled := domain.GroupCancelled
	_, err = svc.Update(ctx, group.ID, UpdatePatch{Status: &cancelled})
	require.NoError(t, err)

	// Members of a cancelled group are free again.
	_, err = svc.Create(ctx, "regrouped", ids[:2])
	require.NoError(t, err)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	group, err := svc.Create(ctx, "legs", ids[:2])
	require.NoError(t, err)

	resolved := domain.GroupResolved
	updated, err := svc.Update(ctx, group.ID, UpdatePatch{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupResolved, updated.Status)

	// No transition out of RESOLVED.
	open := domain.GroupOpen
	_, err = svc.Update(ctx, group.ID, UpdatePatch{Status: &open})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	cancelled := domain.GroupCancelled
	_, err = svc.Update(ctx, group.ID, UpdatePatch{Status: &cancelled})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestUpdate_DescriptionWhileOpen(t *testing.T) {
	ctx := context.Background()
	svc, ids := setup(t)

	group, err := svc.Create(ctx, "old name", ids[:2])
	require.NoError(t, err)

	newDesc := "new name"
	updated, err := svc.Update(ctx, group.ID, UpdatePatch{Description: &newDesc})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Description)

	// Description frozen after resolution.
	resolved := domain.GroupResolved
	_, err = svc.Update(ctx, group.ID, UpdatePatch{Status: &resolved})
	require.NoError(t, err)

	another := "too late"
	_, err = svc.Update(ctx, group.ID, UpdatePatch{Description: &another})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestUpdate_UnknownGroup(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	resolved := domain.GroupResolved
	_, err := svc.Update(ctx, "missing-id", UpdatePatch{Status: &resolved})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
