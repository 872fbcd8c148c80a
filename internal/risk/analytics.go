package risk

import (
	"math"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// RiskRewardRatio returns the reward-to-risk ratio for an entry with the
// given protective levels, or 0 when the risk distance is zero.
func RiskRewardRatio(entryPrice, stopLoss, takeProfit float64) float64 {
	risk := math.Abs(entryPrice - stopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(entryPrice-takeProfit) / risk
}

// KellyFraction returns the half-Kelly betting fraction for the given win
// rate and win/loss ratio. Invalid inputs and negative Kelly values yield 0
// (do not trade).
func KellyFraction(winRate, winLossRatio float64) float64 {
	if winRate <= 0 || winRate >= 1 || winLossRatio <= 0 {
		return 0
	}
	kelly := (winRate*winLossRatio - (1 - winRate)) / winLossRatio
	if kelly <= 0 {
		return 0
	}
	// Half-Kelly is the conservative sizing convention used here.
	return kelly / 2
}

// MaxDrawdown returns the largest peak-to-trough decline in a balance
// history as a fraction of the peak, with the indexes of the peak and
// trough. An empty history returns zeros.
func MaxDrawdown(balanceHistory []float64) (drawdown float64, start, end int) {
	if len(balanceHistory) == 0 {
		return 0, 0, 0
	}

	peak := balanceHistory[0]
	peakIdx := 0
	for i, balance := range balanceHistory {
		if balance > peak {
			peak = balance
			peakIdx = i
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - balance) / peak; dd > drawdown {
			drawdown = dd
			start = peakIdx
			end = i
		}
	}
	return drawdown, start, end
}

// AdjustRiskForVolatility scales a base per-trade risk fraction inversely
// with volatility relative to the configured base volatility, clamped into
// the limits' per-trade risk band.
func AdjustRiskForVolatility(volatility, baseRiskPerTrade float64, limits Limits) float64 {
	if volatility <= 0 || limits.BaseVolatility <= 0 {
		return baseRiskPerTrade
	}
	adjusted := baseRiskPerTrade / (volatility / limits.BaseVolatility)
	return math.Max(limits.MinRiskPerTrade, math.Min(adjusted, limits.MaxRiskPerTrade))
}

// LevelHit reports one open position whose protective level the current
// price has reached.
type LevelHit struct {
	Position position.Position
	Reason   position.CloseReason
	Level    float64
}

// CheckProtectiveLevels scans open positions and reports which have hit
// their configured stop-loss or take-profit at the current price. Positions
// without explicit levels are checked against the limit percentages.
func CheckProtectiveLevels(currentPrice float64, positions []position.Position, limits Limits) ([]LevelHit, error) {
	if currentPrice <= 0 {
		return nil, invalidInput("current_price", "must be positive, got %v", currentPrice)
	}

	calc := NewProtectiveLevelCalculator()
	var hits []LevelHit
	for _, p := range positions {
		if !p.IsOpen() {
			continue
		}

		stopLoss := p.StopLoss
		takeProfit := p.TakeProfit
		if stopLoss == nil {
			sl, err := calc.StopLossPrice(p.EntryPrice, p.Side, limits.StopLossPct)
			if err != nil {
				return nil, err
			}
			stopLoss = &sl
		}
		if takeProfit == nil {
			tp, err := calc.TakeProfitPrice(p.EntryPrice, p.Side, limits.TakeProfitPct)
			if err != nil {
				return nil, err
			}
			takeProfit = &tp
		}

		switch p.Side {
		case position.SideLong:
			if currentPrice <= *stopLoss {
				hits = append(hits, LevelHit{Position: p, Reason: position.CloseReasonStopLoss, Level: *stopLoss})
			} else if currentPrice >= *takeProfit {
				hits = append(hits, LevelHit{Position: p, Reason: position.CloseReasonTakeProfit, Level: *takeProfit})
			}
		case position.SideShort:
			if currentPrice >= *stopLoss {
				hits = append(hits, LevelHit{Position: p, Reason: position.CloseReasonStopLoss, Level: *stopLoss})
			} else if currentPrice <= *takeProfit {
				hits = append(hits, LevelHit{Position: p, Reason: position.CloseReasonTakeProfit, Level: *takeProfit})
			}
		default:
			return nil, invalidInput("side", "unrecognized side %q", p.Side)
		}
	}
	return hits, nil
}
