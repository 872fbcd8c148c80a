package position

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Side is the direction of a position. It is deliberately distinct from the
// order-side vocabulary (buy/sell): a buy order opens or adds to a long
// position, or closes a short one, but "buy" is never stored as a Side.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide converts a raw side string to a Side. Unrecognized values are an
// error; callers must normalize order-side vocabulary before reaching here.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLong, SideShort:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unrecognized position side %q", s)
	}
}

// Status is the lifecycle state of a position.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// ParseStatus converts a raw status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusClosed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unrecognized position status %q", s)
	}
}

// PartialExit records a prior partial close of a position.
type PartialExit struct {
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Position is an open or closed holding of a base asset against a quote
// asset. Amount is always in base currency; ContractSize converts to exchange
// contract counts for futures. Optional prices are pointers so that "not set"
// is distinguishable from zero.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"` // canonical BASE/QUOTE, futures BASE/QUOTE:QUOTE
	Side       Side      `json:"side"`
	Amount     float64   `json:"amount"`
	EntryPrice float64   `json:"entry_price"`
	Leverage   float64   `json:"leverage"` // 1.0 for spot
	Status     Status    `json:"status"`
	OpenedAt   time.Time `json:"opened_at"`

	ExitPrice *float64   `json:"exit_price,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	PnL       float64    `json:"pnl"`

	// Futures-only fields.
	Margin       *float64 `json:"margin,omitempty"`
	ContractSize float64  `json:"contract_size"`

	// Protective levels. LiquidationPrice starts as a local estimate; the
	// exchange-reported value overrides it once known.
	StopLoss              *float64 `json:"stop_loss,omitempty"`
	TakeProfit            *float64 `json:"take_profit,omitempty"`
	LiquidationPrice      *float64 `json:"liquidation_price,omitempty"`
	LiquidationFromVenue  bool     `json:"liquidation_from_venue"`
	AutoProtectiveEnabled bool     `json:"auto_protective_enabled"`

	// Trailing-stop state, owned by risk.TrailingStopEngine.
	TrailingStopEnabled  bool     `json:"trailing_stop_enabled"`
	TrailingStopDistance *float64 `json:"trailing_stop_distance,omitempty"`
	TrailingStopPrice    *float64 `json:"trailing_stop_price,omitempty"`
	TrailingActivated    bool     `json:"trailing_activated"`
	WaterMark            float64  `json:"water_mark"` // high-water (long) or low-water (short)

	PartialExits []PartialExit `json:"partial_exits,omitempty"`
}

// New creates an open position with a fresh identifier.
func New(symbol string, side Side, amount, entryPrice float64) *Position {
	return &Position{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Side:         side,
		Amount:       amount,
		EntryPrice:   entryPrice,
		Leverage:     1.0,
		ContractSize: 1.0,
		Status:       StatusOpen,
		OpenedAt:     time.Now().UTC(),
	}
}

// IsOpen reports whether the position is still active.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// Notional returns the current dollar-equivalent size of the position.
func (p *Position) Notional(currentPrice float64) float64 {
	return p.Amount * currentPrice
}

// EntryNotional returns the notional at entry price.
func (p *Position) EntryNotional() float64 {
	return p.Amount * p.EntryPrice
}

// CommittedMargin returns the balance committed to this position. For
// leveraged positions this is the posted margin; for spot it is the full
// entry notional.
func (p *Position) CommittedMargin() float64 {
	if p.Margin != nil {
		return *p.Margin
	}
	lev := p.Leverage
	if lev < 1.0 {
		lev = 1.0
	}
	return p.EntryNotional() / lev
}

// UnrealizedPnL returns the mark-to-market profit for an open position.
func (p *Position) UnrealizedPnL(currentPrice float64) float64 {
	if !p.IsOpen() {
		return 0
	}
	switch p.Side {
	case SideLong:
		return (currentPrice - p.EntryPrice) * p.Amount
	case SideShort:
		return (p.EntryPrice - currentPrice) * p.Amount
	}
	return 0
}

// UnrealizedPnLPercent returns the unrealized profit as a percentage of the
// entry price.
func (p *Position) UnrealizedPnLPercent(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	switch p.Side {
	case SideLong:
		return (currentPrice - p.EntryPrice) / p.EntryPrice * 100
	case SideShort:
		return (p.EntryPrice - currentPrice) / p.EntryPrice * 100
	}
	return 0
}

// SetProtectiveLevels attaches stop-loss / take-profit prices to the
// position. Nil arguments leave the corresponding level unset.
func (p *Position) SetProtectiveLevels(stopLoss, takeProfit *float64) {
	if stopLoss != nil {
		v := *stopLoss
		p.StopLoss = &v
	}
	if takeProfit != nil {
		v := *takeProfit
		p.TakeProfit = &v
	}
	p.AutoProtectiveEnabled = p.StopLoss != nil || p.TakeProfit != nil
}

// SetVenueLiquidationPrice records the exchange-reported liquidation price,
// which takes precedence over any local estimate.
func (p *Position) SetVenueLiquidationPrice(price float64) {
	p.LiquidationPrice = &price
	p.LiquidationFromVenue = true
}

// SetEstimatedLiquidationPrice records a locally computed liquidation price.
// It never overwrites an exchange-reported value.
func (p *Position) SetEstimatedLiquidationPrice(price float64) {
	if p.LiquidationFromVenue {
		return
	}
	p.LiquidationPrice = &price
}

// CloseReason explains why a position should be closed.
type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "stop_loss"
	CloseReasonTakeProfit   CloseReason = "take_profit"
	CloseReasonTrailingStop CloseReason = "trailing_stop"
)

// ShouldClose checks the position's protective levels against the current
// price and reports whether it must be closed, with the reason.
func (p *Position) ShouldClose(currentPrice float64) (bool, CloseReason) {
	if !p.IsOpen() {
		return false, ""
	}

	if p.AutoProtectiveEnabled && p.StopLoss != nil {
		if (p.Side == SideLong && currentPrice <= *p.StopLoss) ||
			(p.Side == SideShort && currentPrice >= *p.StopLoss) {
			return true, CloseReasonStopLoss
		}
	}

	if p.AutoProtectiveEnabled && p.TakeProfit != nil {
		if (p.Side == SideLong && currentPrice >= *p.TakeProfit) ||
			(p.Side == SideShort && currentPrice <= *p.TakeProfit) {
			return true, CloseReasonTakeProfit
		}
	}

	if p.TrailingStopEnabled && p.TrailingStopPrice != nil {
		if (p.Side == SideLong && currentPrice <= *p.TrailingStopPrice) ||
			(p.Side == SideShort && currentPrice >= *p.TrailingStopPrice) {
			return true, CloseReasonTrailingStop
		}
	}

	return false, ""
}

// Close marks the position closed at the given exit price and realizes PnL.
// Closing an already-closed position is a no-op.
func (p *Position) Close(exitPrice float64, closedAt time.Time) bool {
	if !p.IsOpen() {
		return false
	}
	p.Status = StatusClosed
	p.ExitPrice = &exitPrice
	t := closedAt
	if t.IsZero() {
		t = time.Now().UTC()
	}
	p.ClosedAt = &t

	switch p.Side {
	case SideLong:
		p.PnL = (exitPrice - p.EntryPrice) * p.Amount
	case SideShort:
		p.PnL = (p.EntryPrice - exitPrice) * p.Amount
	}
	return true
}

// AddPartialExit records a partial close and reduces the remaining amount.
// The position is marked closed once the amount reaches zero.
func (p *Position) AddPartialExit(price, amount float64, at time.Time) error {
	if !p.IsOpen() {
		return fmt.Errorf("position %s is already closed", p.ID)
	}
	if amount <= 0 || amount > p.Amount {
		return fmt.Errorf("partial exit amount %.8f out of range (0, %.8f]", amount, p.Amount)
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.PartialExits = append(p.PartialExits, PartialExit{Price: price, Amount: amount, Timestamp: at})

	switch p.Side {
	case SideLong:
		p.PnL += (price - p.EntryPrice) * amount
	case SideShort:
		p.PnL += (p.EntryPrice - price) * amount
	}

	p.Amount -= amount
	if p.Amount <= 1e-12 {
		p.Amount = 0
		p.Status = StatusClosed
		p.ExitPrice = &price
		p.ClosedAt = &at
	}
	return nil
}

// Contracts returns the position size expressed in exchange contracts.
func (p *Position) Contracts() float64 {
	cs := p.ContractSize
	if cs <= 0 {
		cs = 1.0
	}
	return p.Amount * cs
}
