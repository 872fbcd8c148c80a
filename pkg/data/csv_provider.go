package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// CSVProvider loads candles from CSV files. Rows with malformed fields are
// skipped; an unreadable file is an error.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a provider using the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the provider name.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads candles from a CSV file.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", source, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var data []types.OHLCV
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", line, err)
		}
		line++

		if len(record) < p.format.MinColumns {
			continue
		}

		candle, ok := p.parseRow(record)
		if !ok {
			continue
		}
		data = append(data, candle)
	}

	return data, nil
}

func (p *CSVProvider) parseRow(record []string) (types.OHLCV, bool) {
	timestamp, err := time.Parse(p.format.DateFormat, record[p.format.TimestampCol])
	if err != nil {
		return types.OHLCV{}, false
	}

	fields := [5]float64{}
	cols := [5]int{p.format.OpenCol, p.format.HighCol, p.format.LowCol, p.format.CloseCol, p.format.VolumeCol}
	for i, col := range cols {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return types.OHLCV{}, false
		}
		fields[i] = v
	}
	open, high, low, close, volume := fields[0], fields[1], fields[2], fields[3], fields[4]

	if open <= 0 || high <= 0 || low <= 0 || close <= 0 {
		return types.OHLCV{}, false
	}
	if high < open || high < close || high < low {
		return types.OHLCV{}, false
	}
	if low > open || low > close {
		return types.OHLCV{}, false
	}

	return types.OHLCV{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}, true
}

// ValidateData checks the series is non-empty and chronological.
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no valid candles loaded")
	}
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("candles out of chronological order at index %d", i)
		}
	}
	return nil
}
