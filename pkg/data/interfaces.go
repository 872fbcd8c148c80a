// Package data loads candle history from files and replays it as a market
// data source, for test mode and dry runs without an exchange connection.
package data

import (
	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// Provider loads candle history from a source path.
type Provider interface {
	// LoadData loads historical data from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded data
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the data provider
	GetName() string
}

// Cache stores loaded candle series keyed by source.
type Cache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, data []types.OHLCV)
	Clear()
	Size() int
}

// CSVColumnMapping defines the column positions for a CSV layout.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches the common "timestamp,open,high,low,close,volume"
// layout with a datetime timestamp.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}
