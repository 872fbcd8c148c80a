package data

import (
	"context"
	"fmt"
	"sync"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// ReplayMarket serves a loaded candle series as a live market feed: each
// LatestPrice call advances one candle. It satisfies the engine's market
// data interface for test mode and dry runs.
type ReplayMarket struct {
	mu      sync.Mutex
	candles []types.OHLCV
	cursor  int
	minWarm int
}

// NewReplayMarket creates a replay over the given series. minWarmup candles
// are consumed into the initial window before the first tick.
func NewReplayMarket(candles []types.OHLCV, minWarmup int) (*ReplayMarket, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("replay requires at least one candle")
	}
	if minWarmup < 0 {
		minWarmup = 0
	}
	if minWarmup > len(candles) {
		minWarmup = len(candles)
	}
	return &ReplayMarket{candles: candles, cursor: minWarmup, minWarm: minWarmup}, nil
}

// LoadReplayMarket loads a CSV file and wraps it in a ReplayMarket.
func LoadReplayMarket(source string, minWarmup int) (*ReplayMarket, error) {
	provider := NewCachedProvider(NewCSVProvider())
	candles, err := provider.LoadData(source)
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateData(candles); err != nil {
		return nil, err
	}
	return NewReplayMarket(candles, minWarmup)
}

// LatestPrice returns the close of the next candle and advances the cursor.
// io.EOF-style exhaustion is reported as an error.
func (r *ReplayMarket) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor >= len(r.candles) {
		return 0, fmt.Errorf("replay exhausted after %d candles", len(r.candles))
	}
	price := r.candles[r.cursor].Close
	r.cursor++
	return price, nil
}

// RecentCandles returns up to limit candles ending at the replay position.
func (r *ReplayMarket) RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	end := r.cursor
	if end > len(r.candles) {
		end = len(r.candles)
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	window := make([]types.OHLCV, end-start)
	copy(window, r.candles[start:end])
	return window, nil
}

// Exhausted reports whether the replay has served every candle.
func (r *ReplayMarket) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor >= len(r.candles)
}
