package risk

import (
	"github.com/tradelab/crypto-risk-engine/internal/position"
)

// TrailingStopEngine tracks a position's best-seen favorable price and
// recomputes its trailing stop once the activation threshold is crossed.
// State lives on the Position itself and updates for the same position must
// be serialized by the caller; concurrent updates across different positions
// are safe.
type TrailingStopEngine struct{}

// NewTrailingStopEngine creates a trailing-stop engine.
func NewTrailingStopEngine() *TrailingStopEngine {
	return &TrailingStopEngine{}
}

// Update advances the trailing-stop state for one price observation and
// reports whether the stop has been crossed against the position. The caller
// is responsible for closing the position when triggered is true. Repeated
// calls with the same price are idempotent, and for a long position the stop
// never decreases (mirror for shorts).
func (e *TrailingStopEngine) Update(
	p position.Position,
	currentPrice float64,
	activationPct float64,
	trailPct float64,
) (position.Position, bool, error) {
	if currentPrice <= 0 {
		return p, false, invalidInput("current_price", "must be positive, got %v", currentPrice)
	}
	if activationPct <= 0 || activationPct >= 1 {
		return p, false, invalidInput("activation_pct", "must be in (0, 1), got %v", activationPct)
	}
	if trailPct <= 0 || trailPct >= 1 {
		return p, false, invalidInput("trail_pct", "must be in (0, 1), got %v", trailPct)
	}
	if p.Side != position.SideLong && p.Side != position.SideShort {
		return p, false, invalidInput("side", "unrecognized side %q", p.Side)
	}
	if !p.IsOpen() {
		return p, false, nil
	}

	switch p.Side {
	case position.SideLong:
		activationPrice := p.EntryPrice * (1 + activationPct)

		if !p.TrailingActivated {
			if currentPrice < activationPrice {
				return p, false, nil
			}
			p.TrailingActivated = true
			p.TrailingStopEnabled = true
			p.WaterMark = currentPrice
		} else if currentPrice > p.WaterMark {
			p.WaterMark = currentPrice
		}

		stop := p.WaterMark * (1 - trailPct)
		if p.TrailingStopPrice == nil || stop > *p.TrailingStopPrice {
			p.TrailingStopPrice = &stop
		}
		return p, currentPrice <= *p.TrailingStopPrice, nil

	default: // short
		activationPrice := p.EntryPrice * (1 - activationPct)

		if !p.TrailingActivated {
			if currentPrice > activationPrice {
				return p, false, nil
			}
			p.TrailingActivated = true
			p.TrailingStopEnabled = true
			p.WaterMark = currentPrice
		} else if currentPrice < p.WaterMark {
			p.WaterMark = currentPrice
		}

		stop := p.WaterMark * (1 + trailPct)
		if p.TrailingStopPrice == nil || stop < *p.TrailingStopPrice {
			p.TrailingStopPrice = &stop
		}
		return p, currentPrice >= *p.TrailingStopPrice, nil
	}
}
