package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"golang-portfolio/config"
	"golang-portfolio/internal/dto"
	"golang-portfolio/internal/model"
	"golang-portfolio/pkg/cache"
	"golang-portfolio/pkg/logger"
	"golang-portfolio/pkg/utils"
)

// dividendTolerance is the matching window between a dividend date and a
// price timestamp, in seconds (1 day either side).
const dividendTolerance int64 = 86400

// allocationTolerance is the allowed floating point slack when checking that
// portfolio percentages sum to 100.
const allocationTolerance = 1e-6

// BacktestService simulates weighted portfolios over historical price series.
type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResponse, error)
}

type backtestService struct {
	cfg   *config.Config
	log   *logger.Logger
	cache cache.Cache
}

func NewBacktestService(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) BacktestService {
	return &backtestService{
		cfg:   cfg,
		log:   log,
		cache: inmemoryCache,
	}
}

// RunBacktest validates the request, aligns the price series of every
// referenced symbol, and simulates each portfolio over the shared effective
// window. Portfolios are independent, so they run concurrently with private
// accumulator state. The engine is pure, so identical requests are served
// from the memoization cache.
func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResponse, error) {
	if err := validateBacktestRequest(req); err != nil {
		return nil, err
	}

	cacheKey, err := requestDigest(req)
	if err == nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			if response, ok := cached.(*dto.BacktestResponse); ok {
				s.log.Debug("Serving backtest from cache", logger.StringField("key", cacheKey))
				return response, nil
			}
		}
	}

	aligner, err := NewSeriesAligner(req.Series)
	if err != nil {
		return nil, err
	}

	symbols := referencedSymbols(req.Portfolios)
	commonStart, commonEnd, err := aligner.CommonRange(symbols)
	if err != nil {
		return nil, err
	}

	start, end, err := effectiveWindow(req.Config, commonStart, commonEnd)
	if err != nil {
		return nil, err
	}

	results := make([]*dto.BacktestResult, len(req.Portfolios))
	group, groupCtx := errgroup.WithContext(ctx)
	if s.cfg.Engine.MaxConcurrency > 0 {
		group.SetLimit(s.cfg.Engine.MaxConcurrency)
	}

	for i, portfolio := range req.Portfolios {
		i, portfolio := i, portfolio
		group.Go(func() error {
			result, err := s.simulatePortfolio(groupCtx, aligner, portfolio, req.Config, start, end)
			if err != nil {
				return fmt.Errorf("portfolio %s: %w", portfolio.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		s.log.Error("Backtest simulation failed", logger.ErrorField(err))
		return nil, err
	}

	response := &dto.BacktestResponse{
		ActualStartDate: utils.FormatDate(time.Unix(start, 0)),
		ActualEndDate:   utils.FormatDate(time.Unix(end, 0)),
		Results:         make([]dto.BacktestResult, len(results)),
	}
	for i, result := range results {
		response.Results[i] = *result
	}

	if cacheKey != "" {
		s.cache.Set(cacheKey, response, 0)
	}

	s.log.Info("Backtest simulation completed",
		logger.IntField("portfolios", len(response.Results)),
		logger.StringField("start", response.ActualStartDate),
		logger.StringField("end", response.ActualEndDate),
	)
	return response, nil
}

// simulatePortfolio walks one portfolio across the sorted union of its
// symbols' timestamps. All accumulator state is local to this call.
func (s *backtestService) simulatePortfolio(ctx context.Context, aligner *SeriesAligner, portfolio model.Portfolio, cfg dto.BacktestConfig, start, end int64) (*dto.BacktestResult, error) {
	policy := cfg.Policy()

	result := &dto.BacktestResult{
		PortfolioID:     portfolio.ID,
		PortfolioName:   portfolio.Name,
		DetailedMetrics: make(map[string]dto.SymbolMetrics, len(portfolio.Allocations)),
	}

	shares := make(map[string]float64, len(portfolio.Allocations))
	basePrice := make(map[string]float64, len(portfolio.Allocations))
	divCursor := make(map[string]int, len(portfolio.Allocations))
	metrics := make(map[string]*dto.SymbolMetrics, len(portfolio.Allocations))

	symbols := make([]string, 0, len(portfolio.Allocations))
	for _, alloc := range portfolio.Allocations {
		symbols = append(symbols, alloc.Symbol)
		metrics[alloc.Symbol] = &dto.SymbolMetrics{}

		price, ok := aligner.CeilingPrice(alloc.Symbol, start)
		if !ok || price <= 0 {
			warning := fmt.Sprintf("no price for %s at simulation start; allocation contributes zero", alloc.Symbol)
			result.Warnings = append(result.Warnings, warning)
			s.log.Warn("Missing price at backtest initialization",
				logger.StringField("portfolio", portfolio.Name),
				logger.StringField("symbol", alloc.Symbol),
			)
			continue
		}

		basePrice[alloc.Symbol] = price
		if policy == dto.PolicyReinvest {
			shares[alloc.Symbol] = cfg.InitialValue * alloc.Percent / 100 / price
		}

		// Skip dividend history that predates the window.
		dividends := aligner.Dividends(alloc.Symbol)
		divCursor[alloc.Symbol] = sort.Search(len(dividends), func(i int) bool {
			return dividends[i].Date.Unix() >= start-dividendTolerance
		})
	}

	timestamps := aligner.UnionTimestamps(symbols, start, end)
	if len(timestamps) == 0 {
		return nil, model.NewValidationError("price_series", "no price timestamps inside the simulation window")
	}

	var totalDividends float64
	result.TimeSeries = make([]dto.TimePoint, 0, len(timestamps))

	for _, ts := range timestamps {
		var value float64
		for _, alloc := range portfolio.Allocations {
			price, ok := aligner.CeilingPrice(alloc.Symbol, ts)
			if !ok || price <= 0 {
				continue
			}
			switch policy {
			case dto.PolicyReinvest:
				value += shares[alloc.Symbol] * price
			case dto.PolicyCashOut:
				// Proportional-return tracker: no rebalancing, no independent
				// compounding across symbols.
				if basePrice[alloc.Symbol] > 0 {
					value += cfg.InitialValue * alloc.Percent / 100 * price / basePrice[alloc.Symbol]
				}
			}
		}

		for _, alloc := range portfolio.Allocations {
			dividends := aligner.Dividends(alloc.Symbol)
			for cursor := divCursor[alloc.Symbol]; cursor < len(dividends); cursor++ {
				divTime := dividends[cursor].Date.Unix()
				if divTime > ts+dividendTolerance {
					break
				}
				divCursor[alloc.Symbol] = cursor + 1

				if divTime < ts-dividendTolerance {
					warning := fmt.Sprintf("dividend for %s on %s had no price timestamp within 1 day",
						alloc.Symbol, utils.FormatDate(dividends[cursor].Date))
					result.Warnings = append(result.Warnings, warning)
					continue
				}

				price, ok := aligner.CeilingPrice(alloc.Symbol, ts)
				if !ok || price <= 0 {
					warning := fmt.Sprintf("dividend for %s on %s skipped: no reinvestment price",
						alloc.Symbol, utils.FormatDate(dividends[cursor].Date))
					result.Warnings = append(result.Warnings, warning)
					continue
				}

				perShare := dividends[cursor].Amount
				symbolMetrics := metrics[alloc.Symbol]

				switch policy {
				case dto.PolicyReinvest:
					amount := shares[alloc.Symbol] * perShare
					shares[alloc.Symbol] += amount / price
					totalDividends += amount
					symbolMetrics.TotalDividendsReceived += amount
				case dto.PolicyCashOut:
					// Dividends accrue as cash counters against the implied
					// share count; portfolio value is not altered.
					if basePrice[alloc.Symbol] > 0 {
						implied := cfg.InitialValue * alloc.Percent / 100 / basePrice[alloc.Symbol]
						amount := implied * perShare
						totalDividends += amount
						symbolMetrics.TotalDividendsReceived += amount
					}
				}
				symbolMetrics.LastDividendPayment = perShare
			}
		}

		result.TimeSeries = append(result.TimeSeries, dto.TimePoint{Timestamp: ts, Value: value})
	}

	for _, alloc := range portfolio.Allocations {
		symbolMetrics := metrics[alloc.Symbol]
		switch policy {
		case dto.PolicyReinvest:
			symbolMetrics.TotalShares = shares[alloc.Symbol]
		case dto.PolicyCashOut:
			if basePrice[alloc.Symbol] > 0 {
				symbolMetrics.TotalShares = cfg.InitialValue * alloc.Percent / 100 / basePrice[alloc.Symbol]
			}
		}
		symbolMetrics.EstimatedAnnualDividend = symbolMetrics.TotalShares * symbolMetrics.LastDividendPayment * dividendPaymentsPerYear
		result.DetailedMetrics[alloc.Symbol] = *symbolMetrics
	}

	stats, err := calculateStatistics(result.TimeSeries, cfg.InitialValue)
	if err != nil {
		return nil, err
	}
	stats.TotalDividends = totalDividends
	result.Statistics = stats

	return result, nil
}

// validateBacktestRequest re-checks core invariants instead of trusting the
// caller: initial value positive, every allocation set summing to 100.
func validateBacktestRequest(req dto.BacktestRequest) error {
	if req.Config.InitialValue <= 0 {
		return model.NewValidationError("initial_value", "must be positive, got %v", req.Config.InitialValue)
	}
	if len(req.Portfolios) == 0 {
		return model.NewValidationError("portfolios", "at least one portfolio is required")
	}

	for _, portfolio := range req.Portfolios {
		if len(portfolio.Allocations) == 0 {
			return model.NewValidationError("allocations", "portfolio %s has no allocations", portfolio.Name)
		}
		var sum float64
		for _, alloc := range portfolio.Allocations {
			if !utils.IsFinite(alloc.Percent) || alloc.Percent <= 0 {
				return model.NewValidationError("percent", "portfolio %s allocation %s has invalid percent %v",
					portfolio.Name, alloc.Symbol, alloc.Percent)
			}
			sum += alloc.Percent
		}
		if math.Abs(sum-100) > allocationTolerance {
			return model.NewValidationError("allocations", "portfolio %s percentages sum to %v, want 100",
				portfolio.Name, sum)
		}
	}
	return nil
}

// effectiveWindow clamps the common valid range with the configured start and
// end dates. Empty dates auto-derive from the common range.
func effectiveWindow(cfg dto.BacktestConfig, commonStart, commonEnd int64) (int64, int64, error) {
	start, end := commonStart, commonEnd

	if cfg.StartDate != "" {
		date, err := utils.ParseDate(cfg.StartDate)
		if err != nil {
			return 0, 0, model.NewValidationError("start_date", "invalid date %q: %v", cfg.StartDate, err)
		}
		if ts := date.Unix(); ts > start {
			start = ts
		}
	}
	if cfg.EndDate != "" {
		date, err := utils.ParseDate(cfg.EndDate)
		if err != nil {
			return 0, 0, model.NewValidationError("end_date", "invalid date %q: %v", cfg.EndDate, err)
		}
		// Include the whole end day.
		if ts := date.Unix() + 86399; ts < end {
			end = ts
		}
	}

	if start > end {
		return 0, 0, model.NewValidationError("dates", "start date is after end date")
	}
	return start, end, nil
}

// referencedSymbols returns the sorted distinct symbols held by any portfolio.
func referencedSymbols(portfolios []model.Portfolio) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, portfolio := range portfolios {
		for _, alloc := range portfolio.Allocations {
			if _, dup := seen[alloc.Symbol]; !dup {
				seen[alloc.Symbol] = struct{}{}
				symbols = append(symbols, alloc.Symbol)
			}
		}
	}
	sort.Strings(symbols)
	return symbols
}

// requestDigest builds a cache key from the canonical JSON encoding of the
// request. Map keys marshal in sorted order, so the digest is deterministic.
func requestDigest(req dto.BacktestRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "backtest:" + hex.EncodeToString(sum[:]), nil
}
