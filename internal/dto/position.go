package dto

import "golang-portfolio/internal/model"

// PositionRequest carries a batch of transactions, possibly spanning several
// symbols, plus optional current spot prices per symbol.
type PositionRequest struct {
	Transactions  []model.Transaction `json:"transactions" validate:"required,min=1"`
	CurrentPrices map[string]float64  `json:"current_prices,omitempty"`
}

// PositionResponse returns one snapshot per symbol and their aggregate.
type PositionResponse struct {
	Positions map[string]*model.PositionSnapshot `json:"positions"`
	Summary   model.PortfolioSummary             `json:"summary"`
}
