package risk

import (
	"fmt"

	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// RejectCode identifies which limit a proposed trade tripped. Structural
// codes are reported before financial codes so a caller can distinguish "too
// many positions" from "losing too much".
type RejectCode string

const (
	RejectMaxPositions RejectCode = "max_positions"
	RejectMaxExposure  RejectCode = "max_exposure"
	RejectDailyLoss    RejectCode = "daily_loss_limit"
	RejectMaxLoss      RejectCode = "max_loss_limit"
)

// Decision is the outcome of a RiskGate evaluation. A rejection is a normal
// outcome, not an error: it is logged at WARN by the caller and never raised.
type Decision struct {
	Approved bool
	Code     RejectCode
	Reason   string
}

// Approve returns an approving decision.
func Approve() Decision {
	return Decision{Approved: true}
}

// Reject returns a rejecting decision with the given code and reason.
func Reject(code RejectCode, format string, args ...interface{}) Decision {
	return Decision{Approved: false, Code: code, Reason: fmt.Sprintf(format, args...)}
}

// ProposedTrade describes a trade awaiting approval.
type ProposedTrade struct {
	Symbol string
	Side   position.Side
	Amount float64 // base currency
	Price  float64
}

// Notional returns the dollar-equivalent size of the proposed trade.
func (t ProposedTrade) Notional() float64 {
	return t.Amount * t.Price
}

// PortfolioState is the snapshot the gate evaluates against. Positions is
// the single canonical field for open positions; legacy stores with other
// shapes are normalized before a snapshot is built, never here.
type PortfolioState struct {
	Balance          float64
	InitialBalance   float64
	DailyRealizedPnL float64
	CumulativePnL    float64
	Positions        []position.Position
}

// OpenPositions returns the open subset of Positions.
func (s PortfolioState) OpenPositions() []position.Position {
	open := make([]position.Position, 0, len(s.Positions))
	for _, p := range s.Positions {
		if p.IsOpen() {
			open = append(open, p)
		}
	}
	return open
}

// AggregateExposure returns the total entry notional across open positions.
func (s PortfolioState) AggregateExposure() float64 {
	total := 0.0
	for _, p := range s.Positions {
		if p.IsOpen() {
			total += p.EntryNotional()
		}
	}
	return total
}

// RiskGate is the aggregate validator that accepts or rejects a proposed
// trade against the portfolio's limits. It is purely advisory and has no
// side effects; acting on a rejection is the caller's responsibility.
type RiskGate struct{}

// NewRiskGate creates a risk gate.
func NewRiskGate() *RiskGate {
	return &RiskGate{}
}

// Evaluate checks a proposed trade against the limits. Structural checks
// (position count, exposure) run before financial checks (loss limits).
// Malformed inputs are an error, distinct from a reject decision.
func (g *RiskGate) Evaluate(trade ProposedTrade, state PortfolioState, limits Limits) (Decision, error) {
	if trade.Price <= 0 {
		return Decision{}, invalidInput("price", "must be positive, got %v", trade.Price)
	}
	if trade.Amount <= 0 {
		return Decision{}, invalidInput("amount", "must be positive, got %v", trade.Amount)
	}
	if trade.Side != position.SideLong && trade.Side != position.SideShort {
		return Decision{}, invalidInput("side", "unrecognized side %q", trade.Side)
	}
	if state.Balance < 0 {
		return Decision{}, invalidInput("balance", "must be non-negative, got %v", state.Balance)
	}

	// Structural: position count. Adding to an already-held (symbol, side)
	// does not create a new position.
	open := state.OpenPositions()
	if len(open) >= limits.MaxPositions && !holdsPair(open, trade.Symbol, trade.Side) {
		return Reject(RejectMaxPositions,
			"open positions %d at limit %d; %s %s would open a new position",
			len(open), limits.MaxPositions, trade.Symbol, trade.Side), nil
	}

	// Structural: aggregate exposure including the proposed notional.
	maxExposure := limits.MaxPositionSize * state.Balance
	proposed := state.AggregateExposure() + trade.Notional()
	if proposed > maxExposure {
		return Reject(RejectMaxExposure,
			"aggregate exposure %.2f would exceed limit %.2f (%.0f%% of balance)",
			proposed, maxExposure, limits.MaxPositionSize*100), nil
	}

	// Financial: realized daily loss.
	if dailyLoss := -state.DailyRealizedPnL; dailyLoss > 0 && dailyLoss >= limits.DailyLossLimit*state.Balance {
		return Reject(RejectDailyLoss,
			"daily realized loss %.2f at or above limit %.2f (%.0f%% of balance)",
			dailyLoss, limits.DailyLossLimit*state.Balance, limits.DailyLossLimit*100), nil
	}

	// Financial: cumulative loss.
	if totalLoss := -state.CumulativePnL; totalLoss > 0 && totalLoss >= limits.MaxLossLimit*state.Balance {
		return Reject(RejectMaxLoss,
			"cumulative loss %.2f at or above limit %.2f (%.0f%% of balance)",
			totalLoss, limits.MaxLossLimit*state.Balance, limits.MaxLossLimit*100), nil
	}

	return Approve(), nil
}

func holdsPair(open []position.Position, symbol string, side position.Side) bool {
	for _, p := range open {
		if p.Symbol == symbol && p.Side == side {
			return true
		}
	}
	return false
}
