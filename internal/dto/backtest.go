package dto

import "golang-portfolio/internal/model"

// ReinvestmentPolicy selects how dividends affect the simulated portfolio.
// It is resolved once per simulation instead of branching per timestamp.
type ReinvestmentPolicy string

const (
	// PolicyReinvest buys additional synthetic shares with every dividend.
	PolicyReinvest ReinvestmentPolicy = "reinvest"
	// PolicyCashOut tracks price returns only; dividends accumulate as cash
	// counters and never change the equity curve.
	PolicyCashOut ReinvestmentPolicy = "cash_out"
)

// BacktestConfig defines the parameters of a simulation run. Empty start or
// end dates are auto-derived from the common valid window of the referenced
// symbols.
type BacktestConfig struct {
	StartDate         string  `json:"start_date,omitempty"`
	EndDate           string  `json:"end_date,omitempty"`
	InitialValue      float64 `json:"initial_value" validate:"gt=0"`
	ReinvestDividends bool    `json:"reinvest_dividends"`
	// Cashflow fields are accepted but not applied in the simulation loop.
	Cashflow          float64 `json:"cashflow,omitempty"`
	CashflowFrequency string  `json:"cashflow_frequency,omitempty"`
}

// Policy maps the reinvest flag to its enumerated policy.
func (c BacktestConfig) Policy() ReinvestmentPolicy {
	if c.ReinvestDividends {
		return PolicyReinvest
	}
	return PolicyCashOut
}

// BacktestRequest carries the portfolios to simulate, the price history of
// every referenced symbol, and the run configuration.
type BacktestRequest struct {
	Portfolios []model.Portfolio             `json:"portfolios" validate:"required,min=1,dive"`
	Series     map[string]*model.PriceSeries `json:"price_series" validate:"required,min=1"`
	Config     BacktestConfig                `json:"config"`
}

// TimePoint is one step of the simulated equity curve.
type TimePoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// BacktestStatistics summarizes the performance of one simulated portfolio.
type BacktestStatistics struct {
	EndingValue    float64 `json:"ending_value"`
	TotalReturn    float64 `json:"total_return"`
	CAGR           float64 `json:"cagr"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalDividends float64 `json:"total_dividends"`
}

// SymbolMetrics holds the per-symbol detail of a simulation.
type SymbolMetrics struct {
	TotalShares             float64 `json:"total_shares"`
	TotalDividendsReceived  float64 `json:"total_dividends_received"`
	EstimatedAnnualDividend float64 `json:"estimated_annual_dividend"`
	LastDividendPayment     float64 `json:"last_dividend_payment"`
}

// BacktestResult is the outcome of simulating one portfolio.
type BacktestResult struct {
	PortfolioID     string                   `json:"portfolio_id"`
	PortfolioName   string                   `json:"portfolio_name"`
	TimeSeries      []TimePoint              `json:"time_series"`
	Statistics      BacktestStatistics       `json:"statistics"`
	DetailedMetrics map[string]SymbolMetrics `json:"detailed_metrics"`
	Warnings        []string                 `json:"warnings,omitempty"`
}

// BacktestResponse bundles all portfolio results with the effective window
// that was actually simulated.
type BacktestResponse struct {
	ActualStartDate string           `json:"actual_start_date"`
	ActualEndDate   string           `json:"actual_end_date"`
	Results         []BacktestResult `json:"results"`
}
