package model

import "time"

// Allocation assigns a percentage of a portfolio to one symbol.
type Allocation struct {
	Symbol  string  `json:"symbol" validate:"required"`
	Percent float64 `json:"percent" validate:"gt=0,lte=100"`
}

// Portfolio is a weighted basket of symbols. Allocation percentages must sum
// to 100; the engine re-validates this before every simulation.
type Portfolio struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Allocations []Allocation `json:"allocations" validate:"required,min=1,dive"`
}

// DividendEvent is a per-share cash payout on a given date.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// SplitEvent records a share split ratio on a given date.
type SplitEvent struct {
	Date  time.Time `json:"date"`
	Ratio float64   `json:"ratio"`
}

// PriceSeries holds one symbol's historical quotes as parallel arrays keyed
// by unix-second timestamps, plus its dividend and split histories.
type PriceSeries struct {
	Symbol     string          `json:"symbol"`
	Timestamps []int64         `json:"timestamps"`
	Open       []float64       `json:"open"`
	High       []float64       `json:"high"`
	Low        []float64       `json:"low"`
	Close      []float64       `json:"close"`
	Dividends  []DividendEvent `json:"dividends,omitempty"`
	Splits     []SplitEvent    `json:"splits,omitempty"`
}
