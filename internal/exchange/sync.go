package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/logger"
)

const maxFetchAttempts = 3

// baseBackoff is a variable so tests can shrink the retry delay.
var baseBackoff = time.Second

// Sync pulls the full trade history between since and until, page by page,
// bounded by rows per page. Each page fetch is retried with exponential
// backoff; a page that still fails aborts the sync with a FetchError so the
// caller can abandon the run before anything touches the ledger.
func Sync(ctx context.Context, fetcher TradeFetcher, since, until time.Time, rows int) ([]C2CTrade, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("sync: rows must be positive, got %d", rows)
	}
	log := logger.FromContext(ctx)

	startMillis := since.UnixMilli()
	endMillis := until.UnixMilli()

	var trades []C2CTrade
	for page := 1; ; page++ {
		resp, err := fetchPage(ctx, fetcher, startMillis, endMillis, page, rows)
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, &FetchError{Op: "trades", Err: fmt.Errorf("exchange returned code %s", resp.Code)}
		}

		trades = append(trades, resp.Data...)
		log.Debug().
			Int("page", page).
			Int("rows", len(resp.Data)).
			Msg("Fetched trade history page")

		// A short page means we drained the range.
		if len(resp.Data) < rows {
			break
		}
	}

	return trades, nil
}

func fetchPage(ctx context.Context, fetcher TradeFetcher, startMillis, endMillis int64, page, rows int) (*TradePage, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		resp, err := fetcher.FetchTrades(ctx, startMillis, endMillis, page, rows)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < maxFetchAttempts {
			backoff := baseBackoff << (attempt - 1)
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Trade page fetch failed, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &FetchError{Op: "trades", Err: ctx.Err()}
			}
		}
	}

	return nil, &FetchError{Op: "trades", Err: lastErr}
}
