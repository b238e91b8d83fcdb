package service

import (
	"fmt"
	"math"

	"golang-portfolio/internal/dto"
	"golang-portfolio/internal/model"
	"golang-portfolio/pkg/utils"
)

const (
	// riskFreeRate is the fixed 2% rate assumed by the Sharpe ratio.
	riskFreeRate = 0.02
	// tradingDaysPerYear annualizes volatility with a fixed sqrt(252) factor
	// regardless of the actual sampling frequency of the series.
	tradingDaysPerYear = 252
	// dividendPaymentsPerYear assumes a quarterly payout cadence when
	// projecting annual dividends from the last observed payment.
	dividendPaymentsPerYear = 4
)

// calculateStatistics derives performance statistics from a chronological
// equity curve. It returns ErrInvalidConfiguration instead of NaN or Inf
// when the elapsed time span or the initial value is not positive.
func calculateStatistics(series []dto.TimePoint, initialValue float64) (dto.BacktestStatistics, error) {
	var stats dto.BacktestStatistics

	if initialValue <= 0 {
		return stats, fmt.Errorf("%w: initial value must be positive, got %v", model.ErrInvalidConfiguration, initialValue)
	}
	if len(series) < 2 {
		return stats, fmt.Errorf("%w: need at least two points to compute statistics, got %d", model.ErrInvalidConfiguration, len(series))
	}

	endingValue := series[len(series)-1].Value
	years := utils.YearsBetween(series[0].Timestamp, series[len(series)-1].Timestamp)
	if years <= 0 {
		return stats, fmt.Errorf("%w: elapsed time span must be positive", model.ErrInvalidConfiguration)
	}

	stats.EndingValue = endingValue
	stats.TotalReturn = (endingValue - initialValue) / initialValue
	stats.CAGR = math.Pow(endingValue/initialValue, 1/years) - 1
	stats.MaxDrawdown = maxDrawdown(series)
	stats.Volatility = stdev(periodicReturns(series)) * math.Sqrt(tradingDaysPerYear)

	if stats.Volatility == 0 {
		stats.SharpeRatio = 0
	} else {
		stats.SharpeRatio = (stats.CAGR - riskFreeRate) / stats.Volatility
	}

	return stats, nil
}

// maxDrawdown tracks the running peak across the series and reports the
// largest observed (peak - value) / peak.
func maxDrawdown(series []dto.TimePoint) float64 {
	var peak, worst float64
	for _, point := range series {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			if drawdown := (peak - point.Value) / peak; drawdown > worst {
				worst = drawdown
			}
		}
	}
	return worst
}

// periodicReturns is the pairwise percentage change between consecutive
// series points. Points following a non-positive value are skipped since no
// percentage change is defined for them.
func periodicReturns(series []dto.TimePoint) []float64 {
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, (series[i].Value-prev)/prev)
	}
	return returns
}

// stdev is the sample standard deviation, 0 for fewer than two samples.
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sumSquares float64
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}
