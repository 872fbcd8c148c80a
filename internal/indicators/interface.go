package indicators

import "github.com/tradelab/crypto-risk-engine/pkg/types"

// Indicator is a stateful technical indicator fed with OHLCV candles.
type Indicator interface {
	// Calculate returns the indicator value for the given candle window.
	Calculate(data []types.OHLCV) (float64, error)

	// GetName returns the indicator name for logging and reporting.
	GetName() string

	// GetRequiredPeriods returns the minimum number of candles needed.
	GetRequiredPeriods() int

	// ResetState clears internal state so the indicator can be reused on a
	// fresh data series.
	ResetState()
}
