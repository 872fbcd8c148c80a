package risk

import (
	"math"

	"github.com/tradelab/crypto-risk-engine/internal/position"
	"github.com/tradelab/crypto-risk-engine/internal/strategy"
)

// volatilityFloor guards the inverse-volatility adjustment against division
// by zero for near-dead markets.
const volatilityFloor = 1e-8

// PositionSizer computes a bounded trade quantity from a strategy signal,
// the account balance, and the configured risk limits. It is a pure function
// of its inputs; persisting the result is the caller's job.
type PositionSizer struct{}

// NewPositionSizer creates a position sizer.
func NewPositionSizer() *PositionSizer {
	return &PositionSizer{}
}

// ComputeSize returns the quantity (base currency) to trade for the given
// signal, or 0 when no trade should be made. The returned quantity never
// exceeds limits.MaxPositionSize × accountBalance / currentPrice.
func (s *PositionSizer) ComputeSize(
	signal strategy.TradeSignal,
	accountBalance float64,
	currentPrice float64,
	volatility float64,
	openPositions []position.Position,
	limits Limits,
) (float64, error) {
	if currentPrice <= 0 {
		return 0, invalidInput("current_price", "must be positive, got %v", currentPrice)
	}
	if accountBalance < 0 {
		return 0, invalidInput("account_balance", "must be non-negative, got %v", accountBalance)
	}
	if math.IsNaN(volatility) || math.IsInf(volatility, 0) {
		return 0, invalidInput("volatility", "must be finite, got %v", volatility)
	}
	if err := signal.Validate(); err != nil {
		return 0, invalidInput("signal", "%v", err)
	}

	if signal.Direction == strategy.DirectionHold {
		return 0, nil
	}

	// Position-count limit blocks only trades that would open a new
	// (symbol, side) pair; adding to a held position is still allowed.
	if s.blockedByPositionCount(signal, openPositions, limits) {
		return 0, nil
	}

	base := accountBalance * limits.RiskPerTrade / currentPrice
	adjusted := base * signal.Confidence / math.Max(volatility, volatilityFloor)

	candidate := adjusted
	if signal.SuggestedQuantity != nil {
		candidate = math.Min(adjusted, *signal.SuggestedQuantity)
	}

	maxNotionalQty := limits.MaxPositionSize * accountBalance / currentPrice
	freeBalanceQty := (accountBalance - committedMargin(openPositions)) / currentPrice

	final := math.Min(candidate, math.Min(maxNotionalQty, freeBalanceQty))
	if final <= 0 {
		return 0, nil
	}

	// Clamp the per-trade risk fraction into the configured band, then
	// re-apply the global cap so the exposure invariant survives the clamp.
	riskFraction := final * currentPrice / accountBalance
	if riskFraction < limits.MinRiskPerTrade {
		final = limits.MinRiskPerTrade * accountBalance / currentPrice
	} else if riskFraction > limits.MaxRiskPerTrade {
		final = limits.MaxRiskPerTrade * accountBalance / currentPrice
	}
	final = math.Min(final, maxNotionalQty)

	if final <= 0 {
		return 0, nil
	}
	return final, nil
}

func (s *PositionSizer) blockedByPositionCount(
	signal strategy.TradeSignal,
	openPositions []position.Position,
	limits Limits,
) bool {
	openCount := 0
	for _, p := range openPositions {
		if p.IsOpen() {
			openCount++
		}
	}
	if openCount < limits.MaxPositions {
		return false
	}

	side, err := position.SideFromOrder(string(signal.Direction))
	if err != nil {
		return true
	}
	for _, p := range openPositions {
		if p.IsOpen() && p.Symbol == signal.Symbol && p.Side == side {
			return false
		}
	}
	return true
}

// committedMargin sums the balance already committed to open positions.
func committedMargin(positions []position.Position) float64 {
	total := 0.0
	for _, p := range positions {
		if p.IsOpen() {
			total += p.CommittedMargin()
		}
	}
	return total
}
