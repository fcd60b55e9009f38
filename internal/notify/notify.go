package notify

import (
	"context"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// BatchEvent describes one ingestion run that accepted new transactions.
// The pipeline emits it exactly once per run, never per record, and never
// for a run that accepted nothing.
type BatchEvent struct {
	RunID        string
	Source       string
	Transactions []domain.Transaction
	TotalAmount  decimal.Decimal
	Currency     string
}

// Notifier forwards a batch event to whatever channel is configured.
// Delivery failures are the notifier's own problem: records are already
// durable when the event fires, so the pipeline logs and moves on.
type Notifier interface {
	NotifyBatch(ctx context.Context, event BatchEvent) error
}

// LogNotifier writes the batch summary to the structured log. It is always
// installed; other channels stack on top of it.
type LogNotifier struct{}

func (n *LogNotifier) NotifyBatch(ctx context.Context, event BatchEvent) error {
	log := logger.FromContext(ctx)
	log.Info().
		Str("run_id", event.RunID).
		Str("source", event.Source).
		Int("accepted", len(event.Transactions)).
		Str("total", FormatAmount(event.TotalAmount, event.Currency)).
		Msg("Ingestion batch accepted")
	return nil
}

// Fanout delivers one event to several notifiers, isolating failures: one
// broken channel never silences the others.
type Fanout struct {
	Notifiers []Notifier
}

func (f *Fanout) NotifyBatch(ctx context.Context, event BatchEvent) error {
	log := logger.FromContext(ctx)
	for _, n := range f.Notifiers {
		if err := n.NotifyBatch(ctx, event); err != nil {
			log.Warn().Err(err).Str("run_id", event.RunID).Msg("Notifier delivery failed")
		}
	}
	return nil
}

// FormatAmount renders an amount for humans using the currency's own minor
// unit, e.g. "US$1,234.50". Currencies unknown to go-money fall back to two
// decimals with the code appended.
func FormatAmount(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		return amount.StringFixed(2) + " " + code
	}
	units := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(units, code).Display()
}

var _ Notifier = (*LogNotifier)(nil)
var _ Notifier = (*Fanout)(nil)
