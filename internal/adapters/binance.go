package adapters

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// binanceSourceID is the origin id the exchange collaborator stamps on raw
// trades.
const binanceSourceID = "binance"

// BinanceTradeAdapter normalizes Binance C2C (P2P) trade history rows. The
// trade-type filter restricts which side of the book becomes a ledger entry;
// by default only SELL orders (fiat income from selling stablecoins) are
// ingested. The exchange order number is the natural key.
type BinanceTradeAdapter struct {
	tradeType string
}

// NewBinanceTradeAdapter creates an adapter filtering on the given trade type
// (SELL or BUY).
func NewBinanceTradeAdapter(tradeType string) *BinanceTradeAdapter {
	return &BinanceTradeAdapter{tradeType: strings.ToUpper(tradeType)}
}

func (a *BinanceTradeAdapter) Name() string { return "binance-" + strings.ToLower(a.tradeType) }

func (a *BinanceTradeAdapter) Match(trade domain.RawTrade) bool {
	return trade.SourceID == binanceSourceID &&
		strings.EqualFold(trade.TradeType, a.tradeType)
}

func (a *BinanceTradeAdapter) Tag() domain.Tag {
	txType := domain.TypeIncome
	if a.tradeType == "BUY" {
		txType = domain.TypeExpense
	}
	return domain.Tag{
		Platform: domain.PlatformBinance,
		Method:   domain.MethodP2P,
		Type:     txType,
	}
}

// Parse yields at most one record per trade. Trades with a missing order
// number or an unparseable amount are skipped, not fatal.
func (a *BinanceTradeAdapter) Parse(trade domain.RawTrade) ([]domain.ParsedRecord, error) {
	if !a.Match(trade) {
		return nil, fmt.Errorf("binance: source %q type %q: %w", trade.SourceID, trade.TradeType, domain.ErrAdapterMismatch)
	}

	if trade.OrderNumber == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(trade.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, nil
	}

	direction := domain.DirectionIn
	if a.tradeType == "BUY" {
		direction = domain.DirectionOut
	}

	desc := fmt.Sprintf("P2P %s %s", a.tradeType, trade.Asset)
	if trade.Counterparty != "" {
		desc += " / " + trade.Counterparty
	}

	return []domain.ParsedRecord{{
		Date:        trade.OccurredAt,
		Description: desc,
		Amount:      amount,
		Currency:    trade.Fiat,
		ExternalID:  "TRADE_" + trade.OrderNumber,
		Direction:   direction,
	}}, nil
}
