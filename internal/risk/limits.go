package risk

import "fmt"

// Limits is the process-wide risk configuration. It is loaded once, treated
// as an immutable value, and passed explicitly to every component that needs
// it; nothing in this package reads ambient configuration.
type Limits struct {
	StopLossPct     float64 `json:"stop_loss_pct"`     // protective stop distance, fraction of entry
	TakeProfitPct   float64 `json:"take_profit_pct"`   // take-profit distance, fraction of entry
	MaxPositionSize float64 `json:"max_position_size"` // max aggregate exposure, fraction of balance
	RiskPerTrade    float64 `json:"risk_per_trade"`    // capital risked per trade, fraction of balance
	DailyLossLimit  float64 `json:"daily_loss_limit"`  // max realized daily loss, fraction of balance
	MaxLossLimit    float64 `json:"max_loss_limit"`    // max cumulative loss, fraction of balance
	MaxPositions    int     `json:"max_positions"`     // max concurrent open positions
	BaseVolatility  float64 `json:"base_volatility"`   // reference volatility for risk scaling
	MinRiskPerTrade float64 `json:"min_risk_per_trade"`
	MaxRiskPerTrade float64 `json:"max_risk_per_trade"`
}

// DefaultLimits returns the stock risk configuration.
func DefaultLimits() Limits {
	return Limits{
		StopLossPct:     0.02,
		TakeProfitPct:   0.05,
		MaxPositionSize: 0.10,
		RiskPerTrade:    0.01,
		DailyLossLimit:  0.05,
		MaxLossLimit:    0.20,
		MaxPositions:    5,
		BaseVolatility:  0.2,
		MinRiskPerTrade: 0.001,
		MaxRiskPerTrade: 0.02,
	}
}

// Validate checks the limits for internal consistency.
func (l Limits) Validate() error {
	inUnitInterval := func(name string, v float64) error {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s must be in (0, 1), got %v", name, v)
		}
		return nil
	}

	if err := inUnitInterval("stop_loss_pct", l.StopLossPct); err != nil {
		return err
	}
	if err := inUnitInterval("take_profit_pct", l.TakeProfitPct); err != nil {
		return err
	}
	if err := inUnitInterval("max_position_size", l.MaxPositionSize); err != nil {
		return err
	}
	if err := inUnitInterval("risk_per_trade", l.RiskPerTrade); err != nil {
		return err
	}
	if err := inUnitInterval("daily_loss_limit", l.DailyLossLimit); err != nil {
		return err
	}
	if err := inUnitInterval("max_loss_limit", l.MaxLossLimit); err != nil {
		return err
	}
	if l.MaxPositions < 1 {
		return fmt.Errorf("max_positions must be at least 1, got %d", l.MaxPositions)
	}
	if l.BaseVolatility <= 0 {
		return fmt.Errorf("base_volatility must be positive, got %v", l.BaseVolatility)
	}
	if l.MinRiskPerTrade <= 0 || l.MaxRiskPerTrade <= 0 {
		return fmt.Errorf("per-trade risk bounds must be positive")
	}
	if l.MinRiskPerTrade > l.MaxRiskPerTrade {
		return fmt.Errorf("min_risk_per_trade %v exceeds max_risk_per_trade %v",
			l.MinRiskPerTrade, l.MaxRiskPerTrade)
	}
	return nil
}
