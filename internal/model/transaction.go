package model

import "time"

type TransactionType string

const (
	TransactionBuy      TransactionType = "buy"
	TransactionSell     TransactionType = "sell"
	TransactionDividend TransactionType = "dividend"
	TransactionOptions  TransactionType = "options"
)

// Transaction is a single recorded event in a symbol's history. It is created
// by the caller and consumed read-only by the engine.
//
// For dividend transactions with IsDrip=false, Shares means "shares owned at
// payment time" and Price means "per-share payout", not a trade. For options
// transactions the sign of Shares encodes buy/sell of contracts.
type Transaction struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Type   TransactionType `json:"type"`
	Shares float64         `json:"shares"`
	Price  float64         `json:"price"`
	Fees   float64         `json:"fees"`
	Notes  string          `json:"notes,omitempty"`
	IsDrip bool            `json:"is_drip,omitempty"`
}
