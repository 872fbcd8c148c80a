package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

func TestRiskRewardRatio(t *testing.T) {
	// Risk $1000 for a $2500 reward.
	assert.InDelta(t, 2.5, RiskRewardRatio(50000, 49000, 52500), 1e-9)

	// Zero risk distance cannot be ratioed.
	assert.Zero(t, RiskRewardRatio(50000, 50000, 52500))
}

func TestKellyFraction(t *testing.T) {
	// f* = (0.6*2 - 0.4) / 2 = 0.4, halved to 0.2.
	assert.InDelta(t, 0.2, KellyFraction(0.6, 2.0), 1e-9)

	// Negative edge means do not trade.
	assert.Zero(t, KellyFraction(0.3, 1.0))

	// Invalid inputs also mean do not trade.
	assert.Zero(t, KellyFraction(0, 2.0))
	assert.Zero(t, KellyFraction(1, 2.0))
	assert.Zero(t, KellyFraction(0.6, 0))
}

func TestMaxDrawdown(t *testing.T) {
	dd, start, end := MaxDrawdown([]float64{100, 120, 90, 110, 80, 130})
	assert.InDelta(t, (120.0-80.0)/120.0, dd, 1e-9)
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)

	dd, _, _ = MaxDrawdown(nil)
	assert.Zero(t, dd)

	// Monotonically rising balance has no drawdown.
	dd, _, _ = MaxDrawdown([]float64{100, 110, 120})
	assert.Zero(t, dd)
}

func TestAdjustRiskForVolatility(t *testing.T) {
	limits := DefaultLimits() // base_volatility 0.2, band [0.001, 0.02]

	// At base volatility the risk is unchanged.
	assert.InDelta(t, 0.01, AdjustRiskForVolatility(0.2, 0.01, limits), 1e-9)

	// Double volatility halves the risk.
	assert.InDelta(t, 0.005, AdjustRiskForVolatility(0.4, 0.01, limits), 1e-9)

	// Extreme volatility clamps to the band floor.
	assert.InDelta(t, limits.MinRiskPerTrade, AdjustRiskForVolatility(10.0, 0.01, limits), 1e-9)

	// Dead-calm markets clamp to the band ceiling.
	assert.InDelta(t, limits.MaxRiskPerTrade, AdjustRiskForVolatility(0.01, 0.01, limits), 1e-9)
}

func TestCheckProtectiveLevels(t *testing.T) {
	limits := DefaultLimits() // 2% stop, 5% take-profit

	long := position.New("BTC/USDT", position.SideLong, 0.1, 50000)
	short := position.New("ETH/USDT", position.SideShort, 1, 3000)
	closed := position.New("SOL/USDT", position.SideLong, 1, 150)
	closed.Close(151, closed.OpenedAt)

	positions := []position.Position{*long, *short, *closed}

	// At entry price nothing is hit.
	hits, err := CheckProtectiveLevels(50000, []position.Position{*long}, limits)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Long stop-loss at 2% below entry.
	hits, err = CheckProtectiveLevels(49000, []position.Position{*long}, limits)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, position.CloseReasonStopLoss, hits[0].Reason)
	assert.InDelta(t, 49000.0, hits[0].Level, 1e-9)

	// Long take-profit at 5% above entry.
	hits, err = CheckProtectiveLevels(52500, []position.Position{*long}, limits)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, position.CloseReasonTakeProfit, hits[0].Reason)

	// Closed positions are skipped entirely.
	hits, err = CheckProtectiveLevels(100, []position.Position{positions[2]}, limits)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCheckProtectiveLevels_ExplicitLevelsWin(t *testing.T) {
	limits := DefaultLimits()

	p := position.New("BTC/USDT", position.SideLong, 0.1, 50000)
	sl := 48000.0
	p.SetProtectiveLevels(&sl, nil)

	// 49000 would trip the default 2% stop but not the explicit one.
	hits, err := CheckProtectiveLevels(49000, []position.Position{*p}, limits)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = CheckProtectiveLevels(47900, []position.Position{*p}, limits)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, position.CloseReasonStopLoss, hits[0].Reason)
}
