package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-portfolio/config"
	"golang-portfolio/internal/dto"
	"golang-portfolio/internal/model"
	"golang-portfolio/pkg/cache"
	"golang-portfolio/pkg/logger"
	"golang-portfolio/pkg/utils"
)

func newBacktestService() BacktestService {
	cfg := &config.Config{Engine: config.Engine{MaxConcurrency: 2}}
	return NewBacktestService(cfg, logger.NewNop(), cache.NewCache(time.Minute, 0))
}

func singlePortfolio(symbol string) []model.Portfolio {
	return []model.Portfolio{{
		ID:          "p1",
		Name:        "single",
		Allocations: []model.Allocation{{Symbol: symbol, Percent: 100}},
	}}
}

func TestRunBacktest_ReinvestDoublingPrice(t *testing.T) {
	svc := newBacktestService()

	req := dto.BacktestRequest{
		Portfolios: singlePortfolio("VTI"),
		Series: map[string]*model.PriceSeries{
			"VTI": series("VTI", []int{0, 30, 60, 90, 120}, []float64{100, 125, 150, 175, 200}),
		},
		Config: dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: true},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	require.Len(t, result.TimeSeries, 5)
	assert.InDelta(t, 2000.0, result.Statistics.EndingValue, 1e-9, "price doubled, so value doubles")

	years := utils.YearsBetween(ts(0), ts(120))
	assert.InDelta(t, math.Pow(2, 1/years)-1, result.Statistics.CAGR, 1e-9)
	assert.Equal(t, 0.0, result.Statistics.MaxDrawdown)
	assert.InDelta(t, 10.0, result.DetailedMetrics["VTI"].TotalShares, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestRunBacktest_ReinvestDividendCompounds(t *testing.T) {
	svc := newBacktestService()

	flat := series("VTI", []int{0, 5, 10, 15}, []float64{100, 100, 100, 100})
	flat.Dividends = []model.DividendEvent{{Date: time.Unix(ts(10), 0).UTC(), Amount: 1}}

	req := dto.BacktestRequest{
		Portfolios: singlePortfolio("VTI"),
		Series:     map[string]*model.PriceSeries{"VTI": flat},
		Config:     dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: true},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)
	result := resp.Results[0]

	// 10 shares receive $1 each; the $10 buys 0.1 more shares at $100.
	assert.InDelta(t, 10.0, result.Statistics.TotalDividends, 1e-9)
	assert.InDelta(t, 10.1, result.DetailedMetrics["VTI"].TotalShares, 1e-9)
	assert.InDelta(t, 1.0, result.DetailedMetrics["VTI"].LastDividendPayment, 1e-9)
	assert.InDelta(t, 10.1*1*4, result.DetailedMetrics["VTI"].EstimatedAnnualDividend, 1e-9)

	// Reinvestment shows up in the step after the payout.
	assert.InDelta(t, 1000.0, result.TimeSeries[2].Value, 1e-9)
	assert.InDelta(t, 1010.0, result.TimeSeries[3].Value, 1e-9)
	assert.InDelta(t, 1010.0, result.Statistics.EndingValue, 1e-9)
}

func TestRunBacktest_CashOutTracksPriceReturnOnly(t *testing.T) {
	svc := newBacktestService()

	prices := series("VTI", []int{0, 30, 60, 90, 120}, []float64{100, 125, 150, 175, 200})
	prices.Dividends = []model.DividendEvent{{Date: time.Unix(ts(60), 0).UTC(), Amount: 1}}

	req := dto.BacktestRequest{
		Portfolios: singlePortfolio("VTI"),
		Series:     map[string]*model.PriceSeries{"VTI": prices},
		Config:     dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: false},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)
	result := resp.Results[0]

	// Proportional-return tracker: value follows price alone.
	assert.InDelta(t, 1500.0, result.TimeSeries[2].Value, 1e-9)
	assert.InDelta(t, 2000.0, result.Statistics.EndingValue, 1e-9)

	// Dividends accrue as counters against the implied 10 shares but never
	// move the equity curve.
	assert.InDelta(t, 10.0, result.Statistics.TotalDividends, 1e-9)
	assert.InDelta(t, 10.0, result.DetailedMetrics["VTI"].TotalShares, 1e-9)
}

func TestRunBacktest_ActualDatesSpanAllReferencedSymbols(t *testing.T) {
	svc := newBacktestService()

	req := dto.BacktestRequest{
		Portfolios: []model.Portfolio{
			{ID: "p1", Name: "broad", Allocations: []model.Allocation{
				{Symbol: "VTI", Percent: 60},
				{Symbol: "SCHD", Percent: 40},
			}},
			{ID: "p2", Name: "narrow", Allocations: []model.Allocation{
				{Symbol: "VTI", Percent: 100},
			}},
		},
		Series: map[string]*model.PriceSeries{
			"VTI":  series("VTI", []int{0, 30, 60, 90, 120}, []float64{100, 110, 120, 130, 140}),
			"SCHD": series("SCHD", []int{5, 35, 65, 100}, []float64{70, 71, 72, 73}),
		},
		Config: dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: true},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	// max(first timestamps) and min(last timestamps) across every symbol
	// referenced by any portfolio, shared by both results.
	assert.Equal(t, utils.FormatDate(time.Unix(ts(5), 0)), resp.ActualStartDate)
	assert.Equal(t, utils.FormatDate(time.Unix(ts(100), 0)), resp.ActualEndDate)
}

func TestRunBacktest_ConfiguredWindowClampsCommonRange(t *testing.T) {
	svc := newBacktestService()

	req := dto.BacktestRequest{
		Portfolios: singlePortfolio("VTI"),
		Series: map[string]*model.PriceSeries{
			"VTI": series("VTI", []int{0, 30, 60, 90, 120}, []float64{100, 110, 120, 130, 140}),
		},
		Config: dto.BacktestConfig{
			StartDate:         "2020-01-31",
			EndDate:           "2020-03-31",
			InitialValue:      1000,
			ReinvestDividends: true,
		},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "2020-01-31", resp.ActualStartDate)
	result := resp.Results[0]
	require.Len(t, result.TimeSeries, 3, "only the day-30, day-60 and day-90 points fall inside the window")
	assert.Equal(t, ts(30), result.TimeSeries[0].Timestamp)
	assert.Equal(t, ts(90), result.TimeSeries[2].Timestamp)
}

func TestRunBacktest_MissingInitializationPriceWarns(t *testing.T) {
	svc := newBacktestService()

	req := dto.BacktestRequest{
		Portfolios: []model.Portfolio{{
			ID:   "p1",
			Name: "mixed",
			Allocations: []model.Allocation{
				{Symbol: "VTI", Percent: 50},
				{Symbol: "ZERO", Percent: 50},
			},
		}},
		Series: map[string]*model.PriceSeries{
			"VTI":  series("VTI", []int{0, 30, 60}, []float64{100, 110, 120}),
			"ZERO": series("ZERO", []int{0, 30, 60}, []float64{0, 0, 0}),
		},
		Config: dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: true},
	}

	resp, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)

	result := resp.Results[0]
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "ZERO")
	// Only the VTI half contributes: 500 grown by 20%.
	assert.InDelta(t, 600.0, result.Statistics.EndingValue, 1e-9)
}

func TestRunBacktest_Validation(t *testing.T) {
	svc := newBacktestService()
	prices := map[string]*model.PriceSeries{
		"VTI": series("VTI", []int{0, 30}, []float64{100, 110}),
	}

	tests := []struct {
		name string
		req  dto.BacktestRequest
	}{
		{
			name: "allocations do not sum to 100",
			req: dto.BacktestRequest{
				Portfolios: []model.Portfolio{{
					ID: "p1", Name: "bad",
					Allocations: []model.Allocation{{Symbol: "VTI", Percent: 90}},
				}},
				Series: prices,
				Config: dto.BacktestConfig{InitialValue: 1000},
			},
		},
		{
			name: "non-positive initial value",
			req: dto.BacktestRequest{
				Portfolios: singlePortfolio("VTI"),
				Series:     prices,
				Config:     dto.BacktestConfig{InitialValue: 0},
			},
		},
		{
			name: "missing price series for referenced symbol",
			req: dto.BacktestRequest{
				Portfolios: singlePortfolio("MISSING"),
				Series:     prices,
				Config:     dto.BacktestConfig{InitialValue: 1000},
			},
		},
		{
			name: "malformed start date",
			req: dto.BacktestRequest{
				Portfolios: singlePortfolio("VTI"),
				Series:     prices,
				Config:     dto.BacktestConfig{InitialValue: 1000, StartDate: "31/01/2020"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunBacktest(context.Background(), tt.req)
			var validationErr *model.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestRunBacktest_IdenticalRequestServedFromCache(t *testing.T) {
	svc := newBacktestService()

	req := dto.BacktestRequest{
		Portfolios: singlePortfolio("VTI"),
		Series: map[string]*model.PriceSeries{
			"VTI": series("VTI", []int{0, 30, 60}, []float64{100, 110, 120}),
		},
		Config: dto.BacktestConfig{InitialValue: 1000, ReinvestDividends: true},
	}

	first, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.RunBacktest(context.Background(), req)
	require.NoError(t, err)

	assert.Same(t, first, second, "pure engine memoizes identical requests")
}
