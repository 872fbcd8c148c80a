package indicators

import (
	"errors"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// EMA is an exponential moving average. It is used directly and as the
// smoothing stage of ATR (Wilder-style smoothing via UpdateSingle).
type EMA struct {
	period      int
	alpha       float64
	lastValue   float64
	initialized bool
}

// NewEMA creates an EMA with the standard 2/(period+1) smoothing factor.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate returns the EMA of the close prices in the window. The first call
// seeds the average with an SMA of the last period closes; subsequent calls
// fold in only the latest close.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < e.period {
		return 0, errors.New("insufficient data for EMA calculation")
	}

	if !e.initialized {
		sum := 0.0
		for i := len(data) - e.period; i < len(data); i++ {
			sum += data[i].Close
		}
		e.lastValue = sum / float64(e.period)
		e.initialized = true
		return e.lastValue, nil
	}

	latest := data[len(data)-1].Close
	e.lastValue = latest*e.alpha + e.lastValue*(1-e.alpha)
	return e.lastValue, nil
}

// UpdateSingle folds a single raw value into the average and returns the new
// EMA. The first value seeds the average.
func (e *EMA) UpdateSingle(value float64) float64 {
	if !e.initialized {
		e.lastValue = value
		e.initialized = true
	} else {
		e.lastValue = value*e.alpha + e.lastValue*(1-e.alpha)
	}
	return e.lastValue
}

// GetLastValue returns the most recently computed EMA.
func (e *EMA) GetLastValue() float64 {
	return e.lastValue
}

// GetName returns the indicator name.
func (e *EMA) GetName() string {
	return "EMA"
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}

// ResetState clears the running average.
func (e *EMA) ResetState() {
	e.lastValue = 0
	e.initialized = false
}
