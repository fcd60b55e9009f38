package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-ledger/internal/adapters"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/exchange"
	"github.com/dvloznov/finance-ledger/internal/ingest"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/notify"
)

func TestSubscriptionJob_FiredFiveTimesInsertsOnce(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()

	job := &SubscriptionJob{
		Origin:      "CURSOR",
		Description: "Cursor subscription",
		Amount:      decimal.RequireFromString("20.00"),
		Currency:    "USD",
		DayOfMonth:  5,
		Store:       store,
		Clock: func() time.Time {
			return time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)
		},
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, job.Run(ctx))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "five firings in one month, one transaction")

	tx, err := store.FindByKey(ctx, "CURSOR_202407")
	require.NoError(t, err)
	assert.Equal(t, domain.MethodSubscription, tx.Method)
	assert.Equal(t, domain.TypeExpense, tx.Type)
	assert.Equal(t, 5, tx.Date.Day(), "charge anchored to the configured day")
}

func TestSubscriptionJob_BeforeChargeDayNoOp(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()

	job := &SubscriptionJob{
		Origin:     "CURSOR",
		Amount:     decimal.RequireFromString("20.00"),
		Currency:   "USD",
		DayOfMonth: 15,
		Store:      store,
		Clock: func() time.Time {
			return time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)
		},
	}

	require.NoError(t, job.Run(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSubscriptionJob_NewMonthNewCharge(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()

	now := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)
	job := &SubscriptionJob{
		Origin:     "CURSOR",
		Amount:     decimal.RequireFromString("20.00"),
		Currency:   "USD",
		DayOfMonth: 5,
		Store:      store,
		Clock:      func() time.Time { return now },
	}

	require.NoError(t, job.Run(ctx))
	now = time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, job.Run(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "a new month means a new calendar key")
}

func TestMonthlyKey(t *testing.T) {
	got := MonthlyKey("CURSOR", time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "CURSOR_202407", got)

	got = MonthlyKey("NETFLIX", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "NETFLIX_202501", got)
}

// stubEmailSource serves one canned batch and records acknowledgements.
type stubEmailSource struct {
	emails []domain.RawEmail
	err    error
	acked  []string
}

func (s *stubEmailSource) FetchNew(ctx context.Context) ([]domain.RawEmail, error) {
	return s.emails, s.err
}

func (s *stubEmailSource) MarkProcessed(ctx context.Context, sourceIDs []string) error {
	s.acked = append(s.acked, sourceIDs...)
	return nil
}

func TestEmailSyncJob(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()
	pipeline := ingest.New(adapters.DefaultRegistry(), store, &notify.LogNotifier{})

	source := &stubEmailSource{emails: []domain.RawEmail{{
		SourceID: "msg1.eml",
		Sender:   "Notificacion@banesco.com",
		Subject:  "Resumen de Operaciones con TDD Banesco",
		Body:     "15/07/2024 COMPRA FARMATODO CCCT 45,00 Bs.\n",
	}}}

	job := &EmailSyncJob{Source: source, Pipeline: pipeline}
	require.NoError(t, job.Run(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"msg1.eml"}, source.acked, "batch acknowledged after ingestion")
}

func TestEmailSyncJob_FetchFailure(t *testing.T) {
	source := &stubEmailSource{err: errors.New("imap down")}
	job := &EmailSyncJob{
		Source:   source,
		Pipeline: ingest.New(adapters.DefaultRegistry(), ledger.NewMemory(), &notify.LogNotifier{}),
	}
	require.Error(t, job.Run(context.Background()))
	assert.Empty(t, source.acked, "nothing acknowledged on a failed fetch")
}

// pagedFetcher serves one page then empty pages, optionally failing always.
type pagedFetcher struct {
	trades []exchange.C2CTrade
	fail   bool
	calls  int
}

func (f *pagedFetcher) FetchTrades(ctx context.Context, startMillis, endMillis int64, page, rows int) (*exchange.TradePage, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("network down")
	}
	if page == 1 {
		return &exchange.TradePage{Code: "000000", Data: f.trades, Success: true}, nil
	}
	return &exchange.TradePage{Code: "000000", Success: true}, nil
}

func TestTradeSyncJob_AdvancesCursorOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()
	pipeline := ingest.New(adapters.DefaultRegistry(), store, &notify.LogNotifier{})

	fetcher := &pagedFetcher{trades: []exchange.C2CTrade{{
		OrderNumber: "998877",
		TradeType:   "SELL",
		Asset:       "USDT",
		Fiat:        "USD",
		TotalPrice:  "150.25",
		CreateTime:  time.Now().UnixMilli(),
	}}}

	job := &TradeSyncJob{Fetcher: fetcher, Pipeline: pipeline, PageSize: 50}
	require.NoError(t, job.Run(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Second run over the advanced window re-fetches without duplicating.
	require.NoError(t, job.Run(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTradeSyncJob_AbortsCleanlyOnFetchFailure(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory()
	pipeline := ingest.New(adapters.DefaultRegistry(), store, &notify.LogNotifier{})

	job := &TradeSyncJob{Fetcher: &pagedFetcher{fail: true}, Pipeline: pipeline, PageSize: 50}
	err := job.Run(ctx)
	require.Error(t, err)

	var fetchErr *exchange.FetchError
	assert.ErrorAs(t, err, &fetchErr, "fetch failures surface as retryable FetchError")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "aborted run inserts nothing")
}
