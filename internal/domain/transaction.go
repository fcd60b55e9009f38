package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a ledger transaction.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusArchived  Status = "ARCHIVED"
)

// Type classifies the direction of money movement. Amounts are stored as
// positive magnitudes; the sign is implied by the type.
type Type string

const (
	TypeExpense  Type = "EXPENSE"
	TypeIncome   Type = "INCOME"
	TypeTransfer Type = "TRANSFER"
)

// Platform identifies the origin system of a transaction.
type Platform string

const (
	PlatformBanesco   Platform = "BANESCO"
	PlatformMercantil Platform = "MERCANTIL"
	PlatformBNC       Platform = "BNC"
	PlatformBinance   Platform = "BINANCE"
	PlatformManual    Platform = "MANUAL"
)

// Method identifies the payment instrument.
type Method string

const (
	MethodDebitCard    Method = "DEBIT_CARD"
	MethodTransfer     Method = "TRANSFER"
	MethodPagoMovil    Method = "PAGO_MOVIL"
	MethodP2P          Method = "P2P"
	MethodSubscription Method = "SUBSCRIPTION"
	MethodManual       Method = "MANUAL"
)

// Transaction is one canonical ledger entry. TransactionID is the natural key:
// a source-specific composite string that is unique across the entire ledger
// and is the sole deduplication key. Two records carrying the same natural key
// describe the same real-world event; the second one is rejected, never merged.
type Transaction struct {
	ID            int64
	TransactionID string
	Date          time.Time
	Amount        decimal.Decimal
	Currency      string
	Status        Status
	Type          Type
	Platform      Platform
	Method        Method
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Direction of a parsed record relative to the account holder.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// ParsedRecord is adapter output before platform/method/type tagging.
// One raw payload may yield zero or more of these.
type ParsedRecord struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
	ExternalID  string
	Direction   Direction
}

// Tag is the fixed (platform, method, type) triple a source adapter stamps on
// every record it produces.
type Tag struct {
	Platform Platform
	Method   Method
	Type     Type
}
