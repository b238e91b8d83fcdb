package service

import (
	"context"
	"sort"

	"golang-portfolio/internal/dto"
	"golang-portfolio/internal/model"
	"golang-portfolio/pkg/logger"
	"golang-portfolio/pkg/utils"
)

// PositionService turns transaction histories into position snapshots and
// aggregates them into portfolio totals.
type PositionService interface {
	ComputePositionMetrics(ctx context.Context, transactions []model.Transaction, currentPrice *float64) (*model.PositionSnapshot, error)
	ComputePortfolio(ctx context.Context, req dto.PositionRequest) (*dto.PositionResponse, error)
	AggregatePositions(positions map[string]*model.PositionSnapshot) model.PortfolioSummary
}

type positionService struct {
	log *logger.Logger
}

func NewPositionService(log *logger.Logger) PositionService {
	return &positionService{log: log}
}

// ComputePositionMetrics replays one symbol's transactions in chronological
// order into a snapshot. It is a pure function of its inputs: nothing is
// persisted and re-invocation yields the same result.
func (s *positionService) ComputePositionMetrics(ctx context.Context, transactions []model.Transaction, currentPrice *float64) (*model.PositionSnapshot, error) {
	if err := validateTransactions(transactions); err != nil {
		return nil, err
	}

	ordered := make([]model.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	snapshot := &model.PositionSnapshot{}
	if len(ordered) > 0 {
		snapshot.Symbol = ordered[0].Symbol
	}

	// buyFees is the fee portion of the open position's cost basis; sell and
	// options fees hit realized P&L instead.
	var buyFees float64

	for _, tx := range ordered {
		switch {
		case tx.Type == model.TransactionBuy, tx.Type == model.TransactionDividend && tx.IsDrip:
			snapshot.TotalShares += tx.Shares
			snapshot.TotalCost += tx.Shares * tx.Price
			snapshot.TotalFees += tx.Fees
			buyFees += tx.Fees
			if snapshot.TotalShares > 0 {
				snapshot.AverageCostPerShare = snapshot.TotalCost / snapshot.TotalShares
			}

		case tx.Type == model.TransactionDividend:
			// Cash dividend: Shares is the count owned at payment time and
			// Price the per-share payout. The position itself is untouched.
			snapshot.TotalFees += tx.Fees
			snapshot.DividendCash = append(snapshot.DividendCash, model.DividendCash{
				Symbol: tx.Symbol,
				Date:   tx.Date,
				Amount: tx.Shares * tx.Price,
			})

		case tx.Type == model.TransactionSell:
			sharesSold := tx.Shares
			costBasisSold := sharesSold * snapshot.AverageCostPerShare
			proceeds := sharesSold * tx.Price
			gainLoss := proceeds - costBasisSold - tx.Fees

			snapshot.RealizedGainLoss += gainLoss
			snapshot.TotalFees += tx.Fees
			snapshot.RealizedGains = append(snapshot.RealizedGains, model.RealizedGain{
				Symbol:     tx.Symbol,
				Date:       tx.Date,
				SharesSold: sharesSold,
				Proceeds:   proceeds,
				CostBasis:  costBasisSold,
				GainLoss:   gainLoss,
			})

			if prevShares := snapshot.TotalShares; prevShares > 0 && sharesSold < prevShares {
				snapshot.TotalShares -= sharesSold
				snapshot.TotalCost -= costBasisSold
				buyFees -= buyFees * sharesSold / prevShares
				snapshot.AverageCostPerShare = snapshot.TotalCost / snapshot.TotalShares
			} else {
				// Over-selling clamps the position to zero rather than
				// erroring; the realized gain above still uses the full
				// requested share count.
				if sharesSold > snapshot.TotalShares {
					s.log.Warn("Sell exceeds held shares, clamping position to zero",
						logger.StringField("symbol", tx.Symbol),
						logger.Float64Field("shares_sold", sharesSold),
						logger.Float64Field("shares_held", snapshot.TotalShares),
					)
				}
				snapshot.TotalShares = 0
				snapshot.TotalCost = 0
				snapshot.AverageCostPerShare = 0
				buyFees = 0
			}

		case tx.Type == model.TransactionOptions:
			// Contract premium is booked as realized P&L at transaction time,
			// independent of the stock position. The sign of Shares encodes
			// buy/sell of contracts.
			premium := tx.Shares * tx.Price
			gainLoss := premium - tx.Fees
			snapshot.RealizedGainLoss += gainLoss
			snapshot.TotalFees += tx.Fees
			snapshot.RealizedGains = append(snapshot.RealizedGains, model.RealizedGain{
				Symbol:     tx.Symbol,
				Date:       tx.Date,
				SharesSold: tx.Shares,
				Proceeds:   premium,
				GainLoss:   gainLoss,
			})
		}
	}

	snapshot.CostBasis = snapshot.TotalCost + buyFees

	if currentPrice != nil {
		snapshot.CurrentValue = snapshot.TotalShares * *currentPrice
		snapshot.UnrealizedGainLoss = snapshot.CurrentValue - snapshot.CostBasis
		if snapshot.CostBasis != 0 {
			snapshot.GainLossPercent = snapshot.UnrealizedGainLoss / snapshot.CostBasis * 100
		}
	}

	return snapshot, nil
}

// ComputePortfolio groups a multi-symbol transaction batch by symbol and
// computes every snapshot plus the aggregate summary.
func (s *positionService) ComputePortfolio(ctx context.Context, req dto.PositionRequest) (*dto.PositionResponse, error) {
	bySymbol := make(map[string][]model.Transaction)
	for _, tx := range req.Transactions {
		if tx.Symbol == "" {
			return nil, model.NewValidationError("symbol", "transaction %s has no symbol", tx.ID)
		}
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}

	positions := make(map[string]*model.PositionSnapshot, len(bySymbol))
	for symbol, transactions := range bySymbol {
		var price *float64
		if p, ok := req.CurrentPrices[symbol]; ok {
			price = utils.ToPointer(p)
		}
		snapshot, err := s.ComputePositionMetrics(ctx, transactions, price)
		if err != nil {
			return nil, err
		}
		positions[symbol] = snapshot
	}

	return &dto.PositionResponse{
		Positions: positions,
		Summary:   s.AggregatePositions(positions),
	}, nil
}

// AggregatePositions sums snapshot fields across symbols. It is purely
// additive; no cross-symbol logic is applied.
func (s *positionService) AggregatePositions(positions map[string]*model.PositionSnapshot) model.PortfolioSummary {
	var summary model.PortfolioSummary
	for _, snapshot := range positions {
		summary.CurrentValue += snapshot.CurrentValue
		summary.CostBasis += snapshot.CostBasis
		summary.RealizedGainLoss += snapshot.RealizedGainLoss
		summary.UnrealizedGainLoss += snapshot.UnrealizedGainLoss
	}
	if summary.CostBasis != 0 {
		summary.GainLossPercent = summary.UnrealizedGainLoss / summary.CostBasis * 100
	}
	return summary
}

// validateTransactions rejects malformed fields before any accounting runs.
func validateTransactions(transactions []model.Transaction) error {
	for _, tx := range transactions {
		if tx.Date.IsZero() {
			return model.NewValidationError("date", "transaction %s has no date", tx.ID)
		}
		if !utils.IsFinite(tx.Shares) || !utils.IsFinite(tx.Price) || !utils.IsFinite(tx.Fees) {
			return model.NewValidationError("transaction", "transaction %s has a non-numeric shares/price/fees field", tx.ID)
		}
		if tx.Shares < 0 && tx.Type != model.TransactionOptions {
			return model.NewValidationError("shares", "transaction %s has negative shares", tx.ID)
		}
		if tx.Price < 0 {
			return model.NewValidationError("price", "transaction %s has negative price", tx.ID)
		}
		if tx.Fees < 0 {
			return model.NewValidationError("fees", "transaction %s has negative fees", tx.ID)
		}
		switch tx.Type {
		case model.TransactionBuy, model.TransactionSell, model.TransactionDividend, model.TransactionOptions:
		default:
			return model.NewValidationError("type", "transaction %s has unknown type %q", tx.ID, tx.Type)
		}
	}
	return nil
}
