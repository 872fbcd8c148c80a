package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC/USDT", "BTC/USDT"},
		{"BTC/USDT:USDT", "BTC/USDT:USDT"},
		{"BTCUSDT", "BTC/USDT"},
		{"ETHBTC", "ETH/BTC"},
		{"SOLUSDC", "SOL/USDC"},
		{"BTC_KRW", "BTC/KRW"},
		{"KRW-BTC", "BTC/KRW"},
		{"  BTCUSDT  ", "BTC/USDT"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "USDT", "_KRW", "BTC_", "-BTC", "XYZABC"} {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			assert.Error(t, err)
		})
	}
}

func TestIsFutures(t *testing.T) {
	assert.True(t, IsFutures("BTC/USDT:USDT"))
	assert.False(t, IsFutures("BTC/USDT"))
}

func TestSplitBaseQuote(t *testing.T) {
	base, quote, err := SplitBaseQuote("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "USDT", quote)

	base, quote, err = SplitBaseQuote("ETH/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "ETH", base)
	assert.Equal(t, "USDT", quote)

	_, _, err = SplitBaseQuote("BTCUSDT")
	assert.Error(t, err)
}

func TestFuturesSymbol(t *testing.T) {
	got, err := FuturesSymbol("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT:USDT", got)

	// Already-futures symbols pass through.
	got, err = FuturesSymbol("BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT:USDT", got)

	_, err = FuturesSymbol("nonsense")
	assert.Error(t, err)
}

func TestFormatForExchange(t *testing.T) {
	assert.Equal(t, "BTCUSDT", FormatForExchange("BTC/USDT", "binance"))
	assert.Equal(t, "BTCUSDT", FormatForExchange("BTC/USDT:USDT", "bybit"))
	assert.Equal(t, "BTC_KRW", FormatForExchange("BTC/KRW", "bithumb"))
	assert.Equal(t, "KRW-BTC", FormatForExchange("BTC/KRW", "upbit"))
	assert.Equal(t, "BTC/USDT", FormatForExchange("BTC/USDT", "kraken"))
}
