package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction is the action a strategy proposes. This is order vocabulary, not
// position vocabulary: a buy signal opens (or adds to) a long position.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionBuy, DirectionSell, DirectionHold:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unrecognized signal direction %q", s)
	}
}

// TradeSignal is a strategy's proposal for a single trade. SuggestedQuantity
// is an upper candidate for the position sizer, never an override.
type TradeSignal struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Price        float64   `json:"price"`
	Confidence   float64   `json:"confidence"` // 0.0 to 1.0
	StrategyName string    `json:"strategy_name"`
	Timestamp    time.Time `json:"timestamp"`

	SuggestedQuantity *float64 `json:"suggested_quantity,omitempty"`
	StopLoss          *float64 `json:"stop_loss,omitempty"`
	TakeProfit        *float64 `json:"take_profit,omitempty"`
	EntryWindow       *int     `json:"entry_window,omitempty"` // validity in seconds
}

// NewSignal builds a signal with a fresh identifier and the current time.
func NewSignal(symbol string, direction Direction, price, confidence float64, strategyName string) TradeSignal {
	return TradeSignal{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Direction:    direction,
		Price:        price,
		Confidence:   confidence,
		StrategyName: strategyName,
		Timestamp:    time.Now().UTC(),
	}
}

// Validate checks the signal's structural invariants.
func (s TradeSignal) Validate() error {
	if _, err := ParseDirection(string(s.Direction)); err != nil {
		return err
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal confidence %v out of range [0, 1]", s.Confidence)
	}
	if s.Direction != DirectionHold && s.Price <= 0 {
		return fmt.Errorf("signal price must be positive, got %v", s.Price)
	}
	if s.SuggestedQuantity != nil && *s.SuggestedQuantity <= 0 {
		return fmt.Errorf("suggested quantity must be positive, got %v", *s.SuggestedQuantity)
	}
	return nil
}

// Expired reports whether the signal's entry window has elapsed.
func (s TradeSignal) Expired(now time.Time) bool {
	if s.EntryWindow == nil {
		return false
	}
	return now.Sub(s.Timestamp) > time.Duration(*s.EntryWindow)*time.Second
}
