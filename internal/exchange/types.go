package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// C2CTrade is one row of the exchange's P2P trade history.
type C2CTrade struct {
	OrderNumber  string `json:"orderNumber"`
	TradeType    string `json:"tradeType"`
	Asset        string `json:"asset"`
	Fiat         string `json:"fiat"`
	Amount       string `json:"amount"`     // asset quantity
	TotalPrice   string `json:"totalPrice"` // fiat total
	UnitPrice    string `json:"unitPrice"`
	Counterparty string `json:"counterPartNickName"`
	CreateTime   int64  `json:"createTime"` // unix millis
}

// TradePage is one page of the exchange trade-history response.
type TradePage struct {
	Code    string     `json:"code"`
	Data    []C2CTrade `json:"data"`
	Total   int        `json:"total"`
	Success bool       `json:"success"`
}

// FetchError wraps an I/O failure talking to the exchange collaborator. The
// sync loop retries these with backoff; anything still failing aborts the run
// cleanly (nothing has been inserted yet).
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// TradeFetcher is the external exchange-API collaborator. page is 1-based;
// rows is the max page size.
type TradeFetcher interface {
	FetchTrades(ctx context.Context, startMillis, endMillis int64, page, rows int) (*TradePage, error)
}

// ToRawTrades maps trade rows into the pipeline's raw shape. The fiat total
// is what lands in the ledger; the asset quantity stays in Raw for forensics.
func ToRawTrades(trades []C2CTrade) []domain.RawTrade {
	raws := make([]domain.RawTrade, 0, len(trades))
	for _, t := range trades {
		raws = append(raws, domain.RawTrade{
			SourceID:     "binance",
			OrderNumber:  t.OrderNumber,
			Amount:       t.TotalPrice,
			Asset:        t.Asset,
			Fiat:         t.Fiat,
			Counterparty: t.Counterparty,
			TradeType:    t.TradeType,
			OccurredAt:   time.UnixMilli(t.CreateTime).UTC(),
			Raw:          fmt.Sprintf("qty=%s unit=%s", t.Amount, t.UnitPrice),
		})
	}
	return raws
}
