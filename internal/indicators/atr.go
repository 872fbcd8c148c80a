package indicators

import (
	"errors"
	"math"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// ATR is the Average True Range, a volatility measure over the full price
// range of each candle. The raw true ranges are smoothed with an EMA.
type ATR struct {
	period      int
	ema         *EMA
	lastClose   float64
	initialized bool
}

// NewATR creates an ATR smoothed over the given period.
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		ema:    NewEMA(period),
	}
}

// Calculate returns the ATR for the candle window. The first call consumes
// the whole window to build up the smoothing state; subsequent calls fold in
// only the latest candle.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.period {
		return 0, errors.New("insufficient data points for ATR calculation")
	}

	if !a.initialized {
		for i, candle := range data {
			tr := candle.High - candle.Low
			if i > 0 {
				tr = trueRange(candle, a.lastClose)
			}
			a.ema.UpdateSingle(tr)
			a.lastClose = candle.Close
		}
		a.initialized = true
		return a.ema.GetLastValue(), nil
	}

	latest := data[len(data)-1]
	value := a.ema.UpdateSingle(trueRange(latest, a.lastClose))
	a.lastClose = latest.Close
	return value, nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(c types.OHLCV, prevClose float64) float64 {
	hl := c.High - c.Low
	hc := math.Abs(c.High - prevClose)
	lc := math.Abs(c.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// GetName returns the indicator name.
func (a *ATR) GetName() string {
	return "ATR"
}

// GetRequiredPeriods returns the minimum number of candles needed. One extra
// candle is required for the first true-range calculation.
func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1
}

// GetLastValue returns the last computed ATR.
func (a *ATR) GetLastValue() float64 {
	if a.ema == nil {
		return 0
	}
	return a.ema.GetLastValue()
}

// ResetState clears the smoothing state.
func (a *ATR) ResetState() {
	a.ema.ResetState()
	a.lastClose = 0
	a.initialized = false
}
