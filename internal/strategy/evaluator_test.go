package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

func closesToCandles(closes []float64) []types.OHLCV {
	out := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = types.OHLCV{Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestEvaluatorRSIOversoldBuys(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: RSIParams{Period: 5, Overbought: 70, Oversold: 30}})
	require.NoError(t, err)

	// Six straight falling closes drive RSI to 0.
	falling := []float64{100, 98, 96, 94, 92, 90}
	sig, err := ev.Evaluate(closesToCandles(falling), 90)
	require.NoError(t, err)

	require.NotNil(t, sig)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.Equal(t, "BTC/USDT", sig.Symbol)
	assert.Equal(t, StrategyRSI, sig.StrategyName)
	assert.NoError(t, sig.Validate())
}

func TestEvaluatorRSIOverboughtSells(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: RSIParams{Period: 5, Overbought: 70, Oversold: 30}})
	require.NoError(t, err)

	rising := []float64{90, 92, 94, 96, 98, 100}
	sig, err := ev.Evaluate(closesToCandles(rising), 100)
	require.NoError(t, err)

	require.NotNil(t, sig)
	assert.Equal(t, DirectionSell, sig.Direction)
}

func TestEvaluatorRSINeutralIsNil(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: RSIParams{Period: 5, Overbought: 70, Oversold: 30}})
	require.NoError(t, err)

	mixed := []float64{100, 101, 100, 101, 100, 101}
	sig, err := ev.Evaluate(closesToCandles(mixed), 101)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestEvaluatorMACross(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: MovingAverageCrossParams{ShortPeriod: 2, LongPeriod: 4}})
	require.NoError(t, err)

	uptrend := []float64{100, 102, 104, 106}
	sig, err := ev.Evaluate(closesToCandles(uptrend), 106)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionBuy, sig.Direction)

	downtrend := []float64{106, 104, 102, 100}
	sig, err = ev.Evaluate(closesToCandles(downtrend), 100)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionSell, sig.Direction)
}

func TestEvaluatorBollinger(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: BollingerBandsParams{Period: 5, StdDev: 2}})
	require.NoError(t, err)

	closes := []float64{100, 101, 99, 100, 100}

	// Far below the lower band.
	sig, err := ev.Evaluate(closesToCandles(closes), 95)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionBuy, sig.Direction)

	// Far above the upper band.
	sig, err = ev.Evaluate(closesToCandles(closes), 105)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionSell, sig.Direction)

	// Inside the bands.
	sig, err = ev.Evaluate(closesToCandles(closes), 100)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestEvaluatorMACD(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: MACDParams{FastPeriod: 3, SlowPeriod: 6, SignalPeriod: 3}})
	require.NoError(t, err)

	// A long flat stretch then a sharp rally puts MACD above its signal.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 102, 104, 107}
	sig, err := ev.Evaluate(closesToCandles(closes), 107)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionBuy, sig.Direction)
}

func TestEvaluatorShortHistoryIsNil(t *testing.T) {
	ev, err := NewEvaluator("BTC/USDT", ParamSet{Params: RSIParams{Period: 14, Overbought: 70, Oversold: 30}})
	require.NoError(t, err)

	sig, err := ev.Evaluate(closesToCandles([]float64{100, 101}), 101)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestNewEvaluatorRejectsBadParams(t *testing.T) {
	_, err := NewEvaluator("BTC/USDT", ParamSet{})
	assert.Error(t, err)

	_, err = NewEvaluator("BTC/USDT", ParamSet{Params: RSIParams{Period: 1, Overbought: 70, Oversold: 30}})
	assert.Error(t, err)
}
