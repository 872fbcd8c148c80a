package indicators

import (
	"errors"
	"math"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// HoursPerYear annualizes hourly-candle volatility.
const HoursPerYear = 365 * 24

// Volatility is the annualized standard deviation of log returns over a
// rolling window of closes. It feeds volatility-adjusted position sizing.
type Volatility struct {
	period         int
	periodsPerYear float64
	lastValue      float64
}

// NewVolatility creates a volatility estimator over the given window.
// periodsPerYear is the annualization factor for the candle interval
// (HoursPerYear for hourly candles); pass 1 for raw, unannualized values.
func NewVolatility(period int, periodsPerYear float64) *Volatility {
	if periodsPerYear <= 0 {
		periodsPerYear = 1
	}
	return &Volatility{period: period, periodsPerYear: periodsPerYear}
}

// Calculate returns the annualized standard deviation of log returns over the
// last period candles.
func (v *Volatility) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < v.period+1 {
		return 0, errors.New("insufficient data points for volatility calculation")
	}

	window := data[len(data)-(v.period+1):]
	returns := make([]float64, 0, v.period)
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1].Close, window[i].Close
		if prev <= 0 || cur <= 0 {
			return 0, errors.New("non-positive close price in volatility window")
		}
		returns = append(returns, math.Log(cur/prev))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	v.lastValue = math.Sqrt(variance) * math.Sqrt(v.periodsPerYear)
	return v.lastValue, nil
}

// IsHigh reports whether the last computed volatility exceeds threshold.
func (v *Volatility) IsHigh(threshold float64) bool {
	return threshold > 0 && v.lastValue > threshold
}

// GetName returns the indicator name.
func (v *Volatility) GetName() string {
	return "Volatility"
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (v *Volatility) GetRequiredPeriods() int {
	return v.period + 1
}

// GetLastValue returns the last computed volatility.
func (v *Volatility) GetLastValue() float64 {
	return v.lastValue
}

// ResetState clears the cached value.
func (v *Volatility) ResetState() {
	v.lastValue = 0
}
