package exchange

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Wallet buckets of the exchange balance report.
const (
	WalletSpot    = "SPOT"
	WalletFunding = "FUNDING"
	WalletEarn    = "EARN"
)

// BalanceRow is one line of the exchange's own balance report.
type BalanceRow struct {
	Asset  string
	Wallet string
	Free   decimal.Decimal
}

// BalanceReport is the already-fetched balance payload from the exchange
// collaborator.
type BalanceReport struct {
	Rows []BalanceRow
}

// AssetBalance is the per-asset snapshot split into sub-buckets.
type AssetBalance struct {
	Asset   string
	Spot    decimal.Decimal
	Funding decimal.Decimal
	Earn    decimal.Decimal
	Total   decimal.Decimal
}

// StablecoinOverview is a derived, read-only snapshot of exchange-held
// balances. It is computed on demand and never stored in the ledger.
type StablecoinOverview struct {
	Assets []AssetBalance
	Total  decimal.Decimal
}

// ComputeOverview groups the balance report by asset, splitting each into
// spot, funding and earn buckets, ordered by asset name. Unknown wallet
// labels fold into the spot bucket.
func ComputeOverview(report BalanceReport) StablecoinOverview {
	byAsset := make(map[string]*AssetBalance)
	for _, row := range report.Rows {
		asset := strings.ToUpper(row.Asset)
		ab, ok := byAsset[asset]
		if !ok {
			ab = &AssetBalance{Asset: asset}
			byAsset[asset] = ab
		}
		switch strings.ToUpper(row.Wallet) {
		case WalletFunding:
			ab.Funding = ab.Funding.Add(row.Free)
		case WalletEarn:
			ab.Earn = ab.Earn.Add(row.Free)
		default:
			ab.Spot = ab.Spot.Add(row.Free)
		}
	}

	overview := StablecoinOverview{}
	for _, ab := range byAsset {
		ab.Total = ab.Spot.Add(ab.Funding).Add(ab.Earn)
		overview.Assets = append(overview.Assets, *ab)
		overview.Total = overview.Total.Add(ab.Total)
	}
	sort.Slice(overview.Assets, func(i, j int) bool {
		return overview.Assets[i].Asset < overview.Assets[j].Asset
	})
	return overview
}
