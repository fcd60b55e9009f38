package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/adapters"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/notify"
)

// Archiver stores a raw payload for replay before it is parsed. Archiving is
// forensic, not load-bearing: a failure degrades to a warning and the run
// continues.
type Archiver interface {
	Archive(ctx context.Context, source string, payload []byte) (string, error)
}

// Pipeline runs one ingestion batch end to end: registry dispatch, parse,
// normalize, insert-if-absent, and a single batch event when at least one
// record was accepted.
type Pipeline struct {
	registry *adapters.Registry
	store    ledger.Store
	notifier notify.Notifier
	archiver Archiver
}

// New creates a pipeline. notifier may not be nil; use notify.LogNotifier as
// the minimum channel.
func New(registry *adapters.Registry, store ledger.Store, notifier notify.Notifier) *Pipeline {
	return &Pipeline{registry: registry, store: store, notifier: notifier}
}

// WithArchiver enables raw payload archiving.
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline {
	p.archiver = a
	return p
}

// RunResult summarizes one ingestion run. Duplicates are counted, never
// surfaced as failures.
type RunResult struct {
	RunID       string
	Source      string
	Accepted    []domain.Transaction
	Duplicates  int
	Unmatched   int
	Failures    int
	TotalAmount decimal.Decimal
	Currency    string
}

// tagged is one normalized record waiting for insertion.
type tagged struct {
	record domain.ParsedRecord
	tag    domain.Tag
}

// IngestEmails runs one batch of already-fetched raw emails through the
// pipeline. Unparseable or unmatched payloads never abort the batch.
func (p *Pipeline) IngestEmails(ctx context.Context, emails []domain.RawEmail) (*RunResult, error) {
	result := &RunResult{RunID: uuid.NewString(), Source: "email"}
	log := logger.FromContext(ctx).With().Str("run_id", result.RunID).Str("source", result.Source).Logger()
	ctx = logger.WithContext(ctx, log)

	var pending []tagged
	for _, email := range emails {
		adapter := p.registry.FindEmail(email)
		if adapter == nil {
			result.Unmatched++
			log.Debug().Str("sender", email.Sender).Str("subject", email.Subject).Msg("No adapter claims email")
			continue
		}

		p.archive(ctx, "email/"+adapter.Name(), []byte(email.Body))

		records, err := adapter.Parse(email)
		if err != nil {
			// Only ErrAdapterMismatch escapes Parse; it means registry
			// dispatch and adapter signature disagree.
			result.Failures++
			log.Error().Err(err).Str("adapter", adapter.Name()).Msg("Adapter rejected dispatched payload")
			continue
		}
		for _, rec := range records {
			pending = append(pending, tagged{record: rec, tag: adapter.Tag()})
		}
	}

	return p.finish(ctx, result, pending)
}

// IngestTrades runs one batch of already-fetched raw trades through the
// pipeline.
func (p *Pipeline) IngestTrades(ctx context.Context, trades []domain.RawTrade) (*RunResult, error) {
	result := &RunResult{RunID: uuid.NewString(), Source: "trades"}
	log := logger.FromContext(ctx).With().Str("run_id", result.RunID).Str("source", result.Source).Logger()
	ctx = logger.WithContext(ctx, log)

	var pending []tagged
	for _, trade := range trades {
		adapter := p.registry.FindTrade(trade)
		if adapter == nil {
			result.Unmatched++
			continue
		}

		p.archive(ctx, "trades/"+adapter.Name(), []byte(trade.OrderNumber+" "+trade.Raw))

		records, err := adapter.Parse(trade)
		if err != nil {
			result.Failures++
			log.Error().Err(err).Str("adapter", adapter.Name()).Msg("Adapter rejected dispatched payload")
			continue
		}
		for _, rec := range records {
			pending = append(pending, tagged{record: rec, tag: adapter.Tag()})
		}
	}

	return p.finish(ctx, result, pending)
}

// finish inserts the normalized records and emits at most one batch event.
func (p *Pipeline) finish(ctx context.Context, result *RunResult, pending []tagged) (*RunResult, error) {
	log := logger.FromContext(ctx)

	for _, item := range pending {
		tx := Normalize(item.record, item.tag)
		inserted, ok, err := p.store.InsertIfAbsent(ctx, tx)
		if err != nil {
			result.Failures++
			log.Error().Err(err).Str("key", tx.TransactionID).Msg("Ledger insert failed")
			continue
		}
		if !ok {
			result.Duplicates++
			continue
		}
		result.Accepted = append(result.Accepted, inserted)
		result.TotalAmount = result.TotalAmount.Add(inserted.Amount)
		if result.Currency == "" {
			result.Currency = inserted.Currency
		} else if result.Currency != inserted.Currency {
			log.Warn().
				Str("batch_currency", result.Currency).
				Str("record_currency", inserted.Currency).
				Msg("Mixed currencies in one batch")
		}
	}

	log.Info().
		Int("accepted", len(result.Accepted)).
		Int("duplicates", result.Duplicates).
		Int("unmatched", result.Unmatched).
		Int("failures", result.Failures).
		Msg("Ingestion run finished")

	if len(result.Accepted) > 0 {
		event := notify.BatchEvent{
			RunID:        result.RunID,
			Source:       result.Source,
			Transactions: result.Accepted,
			TotalAmount:  result.TotalAmount,
			Currency:     result.Currency,
		}
		if err := p.notifier.NotifyBatch(ctx, event); err != nil {
			// Records are already durable; notification loss is logged only.
			log.Warn().Err(err).Msg("Batch notification failed")
		}
	}

	return result, nil
}

func (p *Pipeline) archive(ctx context.Context, source string, payload []byte) {
	if p.archiver == nil {
		return
	}
	log := logger.FromContext(ctx)
	uri, err := p.archiver.Archive(ctx, source, payload)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Raw payload archive failed")
		return
	}
	log.Debug().Str("uri", uri).Msg("Raw payload archived")
}

// Normalize maps an adapter record plus its tag into a canonical transaction.
// The stored amount is always a positive magnitude; the sign lives in the
// type the adapter assigned.
func Normalize(rec domain.ParsedRecord, tag domain.Tag) domain.Transaction {
	return domain.Transaction{
		TransactionID: rec.ExternalID,
		Date:          rec.Date,
		Amount:        rec.Amount.Abs(),
		Currency:      rec.Currency,
		Type:          tag.Type,
		Platform:      tag.Platform,
		Method:        tag.Method,
		Description:   rec.Description,
	}
}
