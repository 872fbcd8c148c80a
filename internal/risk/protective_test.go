package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

func TestStopLossPrice_LongScenario(t *testing.T) {
	calc := NewProtectiveLevelCalculator()

	price, err := calc.StopLossPrice(50000, position.SideLong, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 47500.0, price)
}

func TestProtectiveLevels_Ordering(t *testing.T) {
	calc := NewProtectiveLevelCalculator()
	entry := 50000.0

	for _, pct := range []float64{0.001, 0.01, 0.05, 0.2, 0.5, 0.999} {
		sl, err := calc.StopLossPrice(entry, position.SideLong, pct)
		require.NoError(t, err)
		tp, err := calc.TakeProfitPrice(entry, position.SideLong, pct)
		require.NoError(t, err)
		assert.Less(t, sl, entry, "long stop must sit below entry at pct=%v", pct)
		assert.Greater(t, tp, entry, "long take-profit must sit above entry at pct=%v", pct)

		sl, err = calc.StopLossPrice(entry, position.SideShort, pct)
		require.NoError(t, err)
		tp, err = calc.TakeProfitPrice(entry, position.SideShort, pct)
		require.NoError(t, err)
		assert.Greater(t, sl, entry, "short stop must sit above entry at pct=%v", pct)
		assert.Less(t, tp, entry, "short take-profit must sit below entry at pct=%v", pct)
	}
}

func TestProtectiveLevels_InvalidInputs(t *testing.T) {
	calc := NewProtectiveLevelCalculator()
	var invalid *InvalidInputError

	_, err := calc.StopLossPrice(50000, position.SideLong, 0)
	require.ErrorAs(t, err, &invalid)

	_, err = calc.StopLossPrice(50000, position.SideLong, 1)
	require.ErrorAs(t, err, &invalid)

	_, err = calc.TakeProfitPrice(0, position.SideLong, 0.05)
	require.ErrorAs(t, err, &invalid)

	_, err = calc.StopLossPrice(50000, position.Side("sell"), 0.05)
	require.ErrorAs(t, err, &invalid)
}

func TestComputeLevels_UsesLimitPercentages(t *testing.T) {
	calc := NewProtectiveLevelCalculator()
	limits := DefaultLimits()

	levels, err := calc.ComputeLevels(50000, position.SideLong, limits)
	require.NoError(t, err)
	assert.InDelta(t, 49000.0, levels.StopLoss, 1e-9)   // 2% stop
	assert.InDelta(t, 52500.0, levels.TakeProfit, 1e-9) // 5% take-profit
}

func TestEstimateLiquidationPrice(t *testing.T) {
	calc := NewProtectiveLevelCalculator()

	// Long 10x with 0.5% maintenance margin: 50000 * (1 - 0.1 + 0.005)
	price, err := calc.EstimateLiquidationPrice(50000, position.SideLong, 10, 0.005)
	require.NoError(t, err)
	assert.InDelta(t, 45250.0, price, 1e-9)

	price, err = calc.EstimateLiquidationPrice(50000, position.SideShort, 10, 0.005)
	require.NoError(t, err)
	assert.InDelta(t, 54750.0, price, 1e-9)

	// Spot has no liquidation price.
	var invalid *InvalidInputError
	_, err = calc.EstimateLiquidationPrice(50000, position.SideLong, 1, 0.005)
	require.ErrorAs(t, err, &invalid)
}

func TestVenueLiquidationPriceOverridesEstimate(t *testing.T) {
	p := position.New("BTC/USDT:USDT", position.SideLong, 0.1, 50000)
	p.Leverage = 10

	p.SetEstimatedLiquidationPrice(45250)
	require.NotNil(t, p.LiquidationPrice)
	assert.Equal(t, 45250.0, *p.LiquidationPrice)

	p.SetVenueLiquidationPrice(45100)
	assert.Equal(t, 45100.0, *p.LiquidationPrice)

	// A later local estimate must not clobber the venue value.
	p.SetEstimatedLiquidationPrice(45250)
	assert.Equal(t, 45100.0, *p.LiquidationPrice)
}
