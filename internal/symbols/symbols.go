// Package symbols converts exchange-native symbol spellings to and from the
// canonical BASE/QUOTE form used throughout the risk core. Normalization
// happens at adapter boundaries only; anything past the boundary can assume
// canonical form.
package symbols

import (
	"fmt"
	"strings"
)

// commonQuotes are the quote currencies recognized when splitting compact
// symbols like BTCUSDT.
var commonQuotes = []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB", "KRW", "USD"}

// Normalize converts a symbol in any supported exchange-native format to the
// canonical BASE/QUOTE form. Futures symbols keep their settle suffix
// (BASE/QUOTE:QUOTE). Returns an error when the spelling cannot be resolved.
func Normalize(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return "", fmt.Errorf("empty symbol")
	}

	if strings.Contains(s, "/") {
		return s, nil
	}

	// Bithumb-style BTC_KRW.
	if strings.Contains(s, "_") {
		parts := strings.SplitN(s, "_", 2)
		if parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("malformed symbol %q", symbol)
		}
		return parts[0] + "/" + parts[1], nil
	}

	// Upbit-style KRW-BTC (quote first).
	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		if parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("malformed symbol %q", symbol)
		}
		return parts[1] + "/" + parts[0], nil
	}

	// Compact Binance-style BTCUSDT.
	for _, quote := range commonQuotes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s[:len(s)-len(quote)] + "/" + quote, nil
		}
	}

	return "", fmt.Errorf("cannot normalize symbol %q", symbol)
}

// IsFutures reports whether a canonical symbol denotes a futures contract
// (BASE/QUOTE:SETTLE form).
func IsFutures(symbol string) bool {
	return strings.Contains(symbol, ":")
}

// SplitBaseQuote extracts the base and quote currencies from a canonical
// symbol, ignoring any futures settle suffix.
func SplitBaseQuote(symbol string) (base, quote string, err error) {
	s := symbol
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("symbol %q is not in BASE/QUOTE form", symbol)
	}
	return parts[0], parts[1], nil
}

// FuturesSymbol converts a canonical spot symbol to its futures form by
// appending the settle currency (the quote).
func FuturesSymbol(spot string) (string, error) {
	if IsFutures(spot) {
		return spot, nil
	}
	_, quote, err := SplitBaseQuote(spot)
	if err != nil {
		return "", err
	}
	return spot + ":" + quote, nil
}

// FormatForExchange renders a canonical symbol in an exchange-native spelling.
// Unknown exchanges get the canonical form back.
func FormatForExchange(symbol, exchangeID string) string {
	s := symbol
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	switch exchangeID {
	case "binance", "bybit":
		return strings.ReplaceAll(s, "/", "")
	case "bithumb":
		return strings.ReplaceAll(s, "/", "_")
	case "upbit":
		parts := strings.SplitN(s, "/", 2)
		if len(parts) == 2 {
			return parts[1] + "-" + parts[0]
		}
		return s
	default:
		return s
	}
}
