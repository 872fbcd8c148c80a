package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

func gateState(balance float64, positions ...position.Position) PortfolioState {
	return PortfolioState{
		Balance:        balance,
		InitialBalance: balance,
		Positions:      positions,
	}
}

func TestRiskGate_ApprovesWithinLimits(t *testing.T) {
	gate := NewRiskGate()

	trade := ProposedTrade{Symbol: "BTC/USDT", Side: position.SideLong, Amount: 0.001, Price: 50000}
	decision, err := gate.Evaluate(trade, gateState(10000), DefaultLimits())
	require.NoError(t, err)
	assert.True(t, decision.Approved)
	assert.Empty(t, decision.Reason)
}

func TestRiskGate_RejectsAtPositionCountLimit(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits()
	limits.MaxPositions = 2
	limits.MaxPositionSize = 0.9

	state := gateState(100000,
		*position.New("BTC/USDT", position.SideLong, 0.001, 50000),
		*position.New("ETH/USDT", position.SideLong, 0.01, 3000),
	)

	trade := ProposedTrade{Symbol: "SOL/USDT", Side: position.SideLong, Amount: 1, Price: 150}
	decision, err := gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, RejectMaxPositions, decision.Code)

	// Adding to a held pair passes the structural check.
	trade = ProposedTrade{Symbol: "BTC/USDT", Side: position.SideLong, Amount: 0.001, Price: 50000}
	decision, err = gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.True(t, decision.Approved)
}

func TestRiskGate_RejectsOnAggregateExposure(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits()
	limits.MaxPositionSize = 0.1 // 10% of balance

	state := gateState(10000,
		*position.New("BTC/USDT", position.SideLong, 0.018, 50000), // $900 exposure
	)

	trade := ProposedTrade{Symbol: "ETH/USDT", Side: position.SideLong, Amount: 0.1, Price: 3000}
	decision, err := gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, RejectMaxExposure, decision.Code)
}

func TestRiskGate_RejectsOnDailyLossBreach(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits() // daily_loss_limit 5%

	state := gateState(10000)
	state.DailyRealizedPnL = -600 // 6% realized loss today

	trade := ProposedTrade{Symbol: "BTC/USDT", Side: position.SideLong, Amount: 0.001, Price: 50000}
	decision, err := gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, RejectDailyLoss, decision.Code)
	assert.Contains(t, decision.Reason, "daily")
}

func TestRiskGate_RejectsOnCumulativeLossBreach(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits() // max_loss_limit 20%

	state := gateState(10000)
	state.CumulativePnL = -2500

	trade := ProposedTrade{Symbol: "BTC/USDT", Side: position.SideLong, Amount: 0.001, Price: 50000}
	decision, err := gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Equal(t, RejectMaxLoss, decision.Code)
}

func TestRiskGate_StructuralChecksPrecedeFinancial(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits()
	limits.MaxPositions = 1
	limits.MaxPositionSize = 0.9

	// State violates both the position count and the daily-loss limit; the
	// structural code must win so callers can tell the two apart.
	state := gateState(10000, *position.New("BTC/USDT", position.SideLong, 0.001, 50000))
	state.DailyRealizedPnL = -900

	trade := ProposedTrade{Symbol: "ETH/USDT", Side: position.SideLong, Amount: 0.01, Price: 3000}
	decision, err := gate.Evaluate(trade, state, limits)
	require.NoError(t, err)
	assert.Equal(t, RejectMaxPositions, decision.Code)
}

func TestRiskGate_ClosedPositionsIgnored(t *testing.T) {
	gate := NewRiskGate()
	limits := DefaultLimits()
	limits.MaxPositions = 1

	closed := position.New("BTC/USDT", position.SideLong, 0.001, 50000)
	closed.Close(51000, closed.OpenedAt)

	trade := ProposedTrade{Symbol: "ETH/USDT", Side: position.SideLong, Amount: 0.01, Price: 3000}
	decision, err := gate.Evaluate(trade, gateState(10000, *closed), limits)
	require.NoError(t, err)
	assert.True(t, decision.Approved)
}

func TestRiskGate_InvalidInputs(t *testing.T) {
	gate := NewRiskGate()
	var invalid *InvalidInputError

	trade := ProposedTrade{Symbol: "BTC/USDT", Side: position.SideLong, Amount: 0.001, Price: 0}
	_, err := gate.Evaluate(trade, gateState(10000), DefaultLimits())
	require.ErrorAs(t, err, &invalid)

	// Order vocabulary must never reach the gate.
	trade = ProposedTrade{Symbol: "BTC/USDT", Side: position.Side("buy"), Amount: 0.001, Price: 50000}
	_, err = gate.Evaluate(trade, gateState(10000), DefaultLimits())
	require.ErrorAs(t, err, &invalid)
}
