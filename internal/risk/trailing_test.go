package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

func newLong(entry float64) position.Position {
	return *position.New("BTC/USDT", position.SideLong, 0.1, entry)
}

func newShort(entry float64) position.Position {
	return *position.New("BTC/USDT", position.SideShort, 0.1, entry)
}

func TestTrailingStop_ActivationThreshold(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)

	// Below the 1% activation threshold nothing happens.
	p, triggered, err := engine.Update(p, 50400, 0.01, 0.02)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.False(t, p.TrailingActivated)
	assert.Nil(t, p.TrailingStopPrice)

	// Crossing the threshold arms the stop below the current price.
	p, triggered, err = engine.Update(p, 50500, 0.01, 0.02)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.True(t, p.TrailingActivated)
	require.NotNil(t, p.TrailingStopPrice)
	assert.InDelta(t, 50500*0.98, *p.TrailingStopPrice, 1e-9)
}

func TestTrailingStop_Idempotent(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)

	p, _, err := engine.Update(p, 52000, 0.01, 0.02)
	require.NoError(t, err)
	first := *p.TrailingStopPrice

	p, _, err = engine.Update(p, 52000, 0.01, 0.02)
	require.NoError(t, err)
	assert.Equal(t, first, *p.TrailingStopPrice)

	p, _, err = engine.Update(p, 52000, 0.01, 0.02)
	require.NoError(t, err)
	assert.Equal(t, first, *p.TrailingStopPrice)
}

func TestTrailingStop_MonotoneForLong(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)

	prices := []float64{51000, 51500, 51200, 52000, 51800, 53000, 52500}
	last := 0.0
	for _, price := range prices {
		var err error
		p, _, err = engine.Update(p, price, 0.01, 0.02)
		require.NoError(t, err)
		require.NotNil(t, p.TrailingStopPrice)
		assert.GreaterOrEqual(t, *p.TrailingStopPrice, last,
			"stop moved backward at price %v", price)
		last = *p.TrailingStopPrice
	}
}

func TestTrailingStop_TriggersOnPullback(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)

	p, triggered, err := engine.Update(p, 52000, 0.01, 0.02)
	require.NoError(t, err)
	require.False(t, triggered)

	stop := *p.TrailingStopPrice
	p, triggered, err = engine.Update(p, stop-1, 0.01, 0.02)
	require.NoError(t, err)
	assert.True(t, triggered)
}

func TestTrailingStop_ShortMirror(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newShort(50000)

	// Favorable move for a short is downward.
	p, triggered, err := engine.Update(p, 49000, 0.01, 0.02)
	require.NoError(t, err)
	require.False(t, triggered)
	require.True(t, p.TrailingActivated)
	assert.InDelta(t, 49000*1.02, *p.TrailingStopPrice, 1e-9)

	// Lower low tightens the stop; stop is monotone non-increasing.
	p, _, err = engine.Update(p, 48000, 0.01, 0.02)
	require.NoError(t, err)
	assert.InDelta(t, 48000*1.02, *p.TrailingStopPrice, 1e-9)

	// A rally through the stop triggers.
	p, triggered, err = engine.Update(p, *p.TrailingStopPrice+1, 0.01, 0.02)
	require.NoError(t, err)
	assert.True(t, triggered)
}

func TestTrailingStop_ClosedPositionIgnored(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)
	p.Close(51000, p.OpenedAt)

	updated, triggered, err := engine.Update(p, 60000, 0.01, 0.02)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Nil(t, updated.TrailingStopPrice)
}

func TestTrailingStop_InvalidInputs(t *testing.T) {
	engine := NewTrailingStopEngine()
	p := newLong(50000)
	var invalid *InvalidInputError

	_, _, err := engine.Update(p, 0, 0.01, 0.02)
	require.ErrorAs(t, err, &invalid)

	_, _, err = engine.Update(p, 51000, 0, 0.02)
	require.ErrorAs(t, err, &invalid)

	_, _, err = engine.Update(p, 51000, 0.01, 1.0)
	require.ErrorAs(t, err, &invalid)

	bad := p
	bad.Side = position.Side("buy")
	_, _, err = engine.Update(bad, 51000, 0.01, 0.02)
	require.ErrorAs(t, err, &invalid)
}
