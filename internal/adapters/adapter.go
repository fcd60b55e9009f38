package adapters

import (
	"github.com/dvloznov/finance-ledger/internal/domain"
)

// EmailAdapter turns one bank notification email into zero or more parsed
// records. Match is the adapter's source signature: expected sender address
// plus acceptable subject patterns (exact or prefix). Parse must be pure and
// deterministic; malformed body content yields zero records, never an error.
// The only error Parse returns is domain.ErrAdapterMismatch, for a payload
// the registry should never have dispatched here.
type EmailAdapter interface {
	Name() string
	Match(email domain.RawEmail) bool
	Parse(email domain.RawEmail) ([]domain.ParsedRecord, error)
	Tag() domain.Tag
}

// TradeAdapter is the equivalent capability for exchange trade feeds. Match
// filters by origin id and trade type.
type TradeAdapter interface {
	Name() string
	Match(trade domain.RawTrade) bool
	Parse(trade domain.RawTrade) ([]domain.ParsedRecord, error)
	Tag() domain.Tag
}

// Registry holds the configured source adapters and picks the one whose
// signature fits an incoming payload. Dispatch is a linear scan; the adapter
// set is small and fixed at startup.
type Registry struct {
	emails []EmailAdapter
	trades []TradeAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterEmail adds an email adapter. Panics on duplicate name.
func (r *Registry) RegisterEmail(a EmailAdapter) {
	for _, existing := range r.emails {
		if existing.Name() == a.Name() {
			panic("duplicate email adapter: " + a.Name())
		}
	}
	r.emails = append(r.emails, a)
}

// RegisterTrade adds a trade adapter. Panics on duplicate name.
func (r *Registry) RegisterTrade(a TradeAdapter) {
	for _, existing := range r.trades {
		if existing.Name() == a.Name() {
			panic("duplicate trade adapter: " + a.Name())
		}
	}
	r.trades = append(r.trades, a)
}

// FindEmail returns the first adapter matching the email, or nil when no
// adapter claims it. Unmatched payloads are not an error; unsupported sources
// are an extension point, not something the core infers.
func (r *Registry) FindEmail(email domain.RawEmail) EmailAdapter {
	for _, a := range r.emails {
		if a.Match(email) {
			return a
		}
	}
	return nil
}

// FindTrade returns the first adapter matching the trade, or nil.
func (r *Registry) FindTrade(trade domain.RawTrade) TradeAdapter {
	for _, a := range r.trades {
		if a.Match(trade) {
			return a
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterEmail(&BanescoAdapter{})
	r.RegisterEmail(&MercantilAdapter{})
	r.RegisterEmail(&BNCAdapter{})
	r.RegisterTrade(NewBinanceTradeAdapter("SELL"))
	return r
}
