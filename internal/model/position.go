package model

import "time"

// RealizedGain records the profit or loss locked in by one sale.
type RealizedGain struct {
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	SharesSold float64   `json:"shares_sold"`
	Proceeds   float64   `json:"proceeds"`
	CostBasis  float64   `json:"cost_basis"`
	GainLoss   float64   `json:"gain_loss"`
}

// DividendCash records a cash (non-DRIP) dividend payout.
type DividendCash struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// PositionSnapshot is the derived state of one symbol's position. It is
// recomputed in full from the transaction list on every query and never
// persisted.
type PositionSnapshot struct {
	Symbol              string         `json:"symbol"`
	TotalShares         float64        `json:"total_shares"`
	TotalCost           float64        `json:"total_cost"`
	TotalFees           float64        `json:"total_fees"`
	AverageCostPerShare float64        `json:"average_cost_per_share"`
	CostBasis           float64        `json:"cost_basis"`
	CurrentValue        float64        `json:"current_value"`
	RealizedGainLoss    float64        `json:"realized_gain_loss"`
	UnrealizedGainLoss  float64        `json:"unrealized_gain_loss"`
	GainLossPercent     float64        `json:"gain_loss_percent"`
	RealizedGains       []RealizedGain `json:"realized_gains,omitempty"`
	DividendCash        []DividendCash `json:"dividend_cash,omitempty"`
}

// PortfolioSummary is the field-wise sum of per-symbol snapshots.
type PortfolioSummary struct {
	CurrentValue       float64 `json:"current_value"`
	CostBasis          float64 `json:"cost_basis"`
	RealizedGainLoss   float64 `json:"realized_gain_loss"`
	UnrealizedGainLoss float64 `json:"unrealized_gain_loss"`
	GainLossPercent    float64 `json:"gain_loss_percent"`
}
