package risk

import (
	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// ProtectiveLevelCalculator computes stop-loss, take-profit, and advisory
// liquidation prices from an entry price and side.
type ProtectiveLevelCalculator struct{}

// NewProtectiveLevelCalculator creates a protective-level calculator.
func NewProtectiveLevelCalculator() *ProtectiveLevelCalculator {
	return &ProtectiveLevelCalculator{}
}

// StopLossPrice returns the stop-loss price for a position entered at
// entryPrice: below entry for longs, above for shorts.
func (c *ProtectiveLevelCalculator) StopLossPrice(entryPrice float64, side position.Side, pct float64) (float64, error) {
	if err := c.checkInputs(entryPrice, side, pct); err != nil {
		return 0, err
	}
	if side == position.SideLong {
		return entryPrice * (1 - pct), nil
	}
	return entryPrice * (1 + pct), nil
}

// TakeProfitPrice returns the take-profit price for a position entered at
// entryPrice: above entry for longs, below for shorts.
func (c *ProtectiveLevelCalculator) TakeProfitPrice(entryPrice float64, side position.Side, pct float64) (float64, error) {
	if err := c.checkInputs(entryPrice, side, pct); err != nil {
		return 0, err
	}
	if side == position.SideLong {
		return entryPrice * (1 + pct), nil
	}
	return entryPrice * (1 - pct), nil
}

// Levels bundles the stop-loss and take-profit for one entry.
type Levels struct {
	StopLoss   float64
	TakeProfit float64
}

// ComputeLevels returns both protective levels using the configured limit
// percentages.
func (c *ProtectiveLevelCalculator) ComputeLevels(entryPrice float64, side position.Side, limits Limits) (Levels, error) {
	sl, err := c.StopLossPrice(entryPrice, side, limits.StopLossPct)
	if err != nil {
		return Levels{}, err
	}
	tp, err := c.TakeProfitPrice(entryPrice, side, limits.TakeProfitPct)
	if err != nil {
		return Levels{}, err
	}
	return Levels{StopLoss: sl, TakeProfit: tp}, nil
}

// EstimateLiquidationPrice computes a local estimate of the liquidation
// price for a leveraged position under an isolated-margin maintenance
// convention. The estimate is advisory only: the exchange-reported
// liquidation price is authoritative and must override this value once known
// (see Position.SetVenueLiquidationPrice).
func (c *ProtectiveLevelCalculator) EstimateLiquidationPrice(
	entryPrice float64,
	side position.Side,
	leverage float64,
	maintenanceMarginRate float64,
) (float64, error) {
	if entryPrice <= 0 {
		return 0, invalidInput("entry_price", "must be positive, got %v", entryPrice)
	}
	if side != position.SideLong && side != position.SideShort {
		return 0, invalidInput("side", "unrecognized side %q", side)
	}
	if leverage <= 1 {
		return 0, invalidInput("leverage", "liquidation undefined for leverage %v", leverage)
	}
	if maintenanceMarginRate < 0 || maintenanceMarginRate >= 1 {
		return 0, invalidInput("maintenance_margin_rate", "must be in [0, 1), got %v", maintenanceMarginRate)
	}

	if side == position.SideLong {
		return entryPrice * (1 - 1/leverage + maintenanceMarginRate), nil
	}
	return entryPrice * (1 + 1/leverage - maintenanceMarginRate), nil
}

func (c *ProtectiveLevelCalculator) checkInputs(entryPrice float64, side position.Side, pct float64) error {
	if entryPrice <= 0 {
		return invalidInput("entry_price", "must be positive, got %v", entryPrice)
	}
	if side != position.SideLong && side != position.SideShort {
		return invalidInput("side", "unrecognized side %q", side)
	}
	if pct <= 0 || pct >= 1 {
		return invalidInput("pct", "must be in (0, 1), got %v", pct)
	}
	return nil
}
