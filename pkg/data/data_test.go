package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

const sampleCSV = `timestamp,open,high,low,close,volume
2025-06-01 00:00:00,100,105,99,104,1200
2025-06-01 01:00:00,104,108,103,107,900
2025-06-01 02:00:00,107,107,101,102,1500
bad-timestamp,1,2,3,4,5
2025-06-01 03:00:00,102,106,100,105,800
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVProviderLoadsAndSkipsBadRows(t *testing.T) {
	provider := NewCSVProvider()
	candles, err := provider.LoadData(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	require.Len(t, candles, 4, "malformed row is skipped")
	assert.Equal(t, 104.0, candles[0].Close)
	assert.Equal(t, 105.0, candles[3].Close)
	assert.NoError(t, provider.ValidateData(candles))
}

func TestCSVProviderMissingFile(t *testing.T) {
	provider := NewCSVProvider()
	_, err := provider.LoadData(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestValidateDataRejectsOutOfOrder(t *testing.T) {
	provider := NewCSVProvider()

	candles, err := provider.LoadData(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	candles[0], candles[1] = candles[1], candles[0]
	assert.Error(t, provider.ValidateData(candles))

	assert.Error(t, provider.ValidateData(nil))
}

func TestCachedProviderHitsCache(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	cached := NewCachedProvider(NewCSVProvider())

	first, err := cached.LoadData(path)
	require.NoError(t, err)

	// Remove the file: a second load must come from cache.
	require.NoError(t, os.Remove(path))
	second, err := cached.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReplayMarketAdvances(t *testing.T) {
	candles := []types.OHLCV{
		{Close: 100}, {Close: 101}, {Close: 102}, {Close: 103},
	}
	replay, err := NewReplayMarket(candles, 2)
	require.NoError(t, err)

	ctx := context.Background()

	price, err := replay.LatestPrice(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 102.0, price, "warmup candles are skipped")

	window, err := replay.RecentCandles(ctx, "BTC/USDT", "1h", 10)
	require.NoError(t, err)
	assert.Len(t, window, 3, "window ends at the replay position")

	price, err = replay.LatestPrice(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 103.0, price)
	assert.True(t, replay.Exhausted())

	_, err = replay.LatestPrice(ctx, "BTC/USDT")
	assert.Error(t, err)
}

func TestReplayMarketRequiresCandles(t *testing.T) {
	_, err := NewReplayMarket(nil, 0)
	assert.Error(t, err)
}
