package domain

import "time"

// RawEmail is one already-fetched email payload from the mail collaborator.
// Immutable once received; the pipeline discards it after normalization.
type RawEmail struct {
	SourceID   string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// RawTrade is one already-fetched trade record from the exchange collaborator.
type RawTrade struct {
	SourceID     string
	OrderNumber  string
	Amount       string
	Asset        string
	Fiat         string
	Counterparty string
	TradeType    string
	OccurredAt   time.Time
	Raw          string
}
