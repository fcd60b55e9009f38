package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/exchange"
	"github.com/dvloznov/finance-ledger/internal/ingest"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// EmailSource is the external mail collaborator. It returns already-fetched
// raw payloads filtered to likely-relevant messages; retrieval (IMAP, API)
// lives outside the core. FetchNew must not consume: payloads are
// acknowledged with MarkProcessed only after the pipeline has taken the
// batch, so an aborted run re-reads them and the ledger's dedup absorbs the
// repeat.
type EmailSource interface {
	FetchNew(ctx context.Context) ([]domain.RawEmail, error)
	MarkProcessed(ctx context.Context, sourceIDs []string) error
}

// EmailSyncJob drains the email collaborator and runs the ingest pipeline.
type EmailSyncJob struct {
	Source   EmailSource
	Pipeline *ingest.Pipeline
}

func (j *EmailSyncJob) Name() string { return "email-sync" }

func (j *EmailSyncJob) Run(ctx context.Context) error {
	emails, err := j.Source.FetchNew(ctx)
	if err != nil {
		return fmt.Errorf("fetching emails: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}
	if _, err := j.Pipeline.IngestEmails(ctx, emails); err != nil {
		return err
	}

	ids := make([]string, 0, len(emails))
	for _, email := range emails {
		ids = append(ids, email.SourceID)
	}
	return j.Source.MarkProcessed(ctx, ids)
}

// TradeSyncJob pulls the exchange trade history from the last synced time to
// now, page by page, and feeds it to the pipeline. The cursor only advances
// after the run succeeds, so an aborted fetch is retried over the same window
// on the next firing.
type TradeSyncJob struct {
	Fetcher  exchange.TradeFetcher
	Pipeline *ingest.Pipeline
	PageSize int

	Clock func() time.Time

	mu       sync.Mutex
	lastSync time.Time
}

func (j *TradeSyncJob) Name() string { return "trade-sync" }

func (j *TradeSyncJob) Run(ctx context.Context) error {
	now := j.now()

	j.mu.Lock()
	since := j.lastSync
	j.mu.Unlock()
	if since.IsZero() {
		since = now.Add(-24 * time.Hour)
	}

	trades, err := exchange.Sync(ctx, j.Fetcher, since, now, j.PageSize)
	if err != nil {
		// Nothing was inserted; the run aborts with no partial duplicate risk.
		return fmt.Errorf("trade sync window %s..%s: %w", since.Format(time.RFC3339), now.Format(time.RFC3339), err)
	}

	if _, err := j.Pipeline.IngestTrades(ctx, exchange.ToRawTrades(trades)); err != nil {
		return err
	}

	j.mu.Lock()
	j.lastSync = now
	j.mu.Unlock()
	return nil
}

func (j *TradeSyncJob) now() time.Time {
	if j.Clock != nil {
		return j.Clock()
	}
	return time.Now()
}

// SubscriptionJob inserts one synthetic charge per calendar month for a
// recurring subscription. The natural key is calendar-derived
// ("<ORIGIN>_<year><month>"), so however many times the job fires within a
// month, at most one transaction lands in the ledger.
type SubscriptionJob struct {
	Origin      string // fixed short code, e.g. "CURSOR"
	Description string
	Amount      decimal.Decimal
	Currency    string
	DayOfMonth  int

	Store ledger.Store
	Clock func() time.Time
}

func (j *SubscriptionJob) Name() string { return "subscription-" + j.Origin }

func (j *SubscriptionJob) Run(ctx context.Context) error {
	now := j.now()

	// Fire on the charge day or later in the month (catch-up after downtime);
	// the calendar key keeps the insert idempotent either way.
	if now.Day() < j.DayOfMonth {
		return nil
	}

	key := MonthlyKey(j.Origin, now)
	chargeDate := time.Date(now.Year(), now.Month(), j.DayOfMonth, 0, 0, 0, 0, now.Location())

	tx := domain.Transaction{
		TransactionID: key,
		Date:          chargeDate,
		Amount:        j.Amount,
		Currency:      j.Currency,
		Type:          domain.TypeExpense,
		Platform:      domain.Platform(j.Origin),
		Method:        domain.MethodSubscription,
		Description:   j.Description,
	}

	_, inserted, err := j.Store.InsertIfAbsent(ctx, tx)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", key, err)
	}
	if inserted {
		log := logger.FromContext(ctx)
		log.Info().
			Str("key", key).
			Str("amount", j.Amount.String()+" "+j.Currency).
			Msg("Monthly subscription charge recorded")
	}
	return nil
}

func (j *SubscriptionJob) now() time.Time {
	if j.Clock != nil {
		return j.Clock()
	}
	return time.Now()
}

// MonthlyKey builds the period-scoped natural key, e.g. "CURSOR_202407".
func MonthlyKey(origin string, t time.Time) string {
	return fmt.Sprintf("%s_%04d%02d", origin, t.Year(), int(t.Month()))
}
