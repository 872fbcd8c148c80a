package position

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// This file is the normalization boundary for position records arriving from
// legacy stores and external adapters. Field-name drift (amount vs quantity vs
// contracts, created_at vs opened_at) and order-side vocabulary (buy/sell) are
// resolved here; the risk core only ever sees the canonical schema.

// SideFromOrder maps order-side vocabulary to the position side it opens:
// a buy order opens a long, a sell order opens a short.
func SideFromOrder(orderSide string) (Side, error) {
	switch orderSide {
	case "buy":
		return SideLong, nil
	case "sell":
		return SideShort, nil
	default:
		return "", fmt.Errorf("unrecognized order side %q", orderSide)
	}
}

// FromRecord builds a canonical Position from a loosely-shaped record, as
// produced by legacy stores and exchange adapters. Alias fields are resolved
// in priority order: amount, then quantity, then contracts (divided by
// contract_size). Sides given in order vocabulary are converted.
func FromRecord(rec map[string]interface{}) (*Position, error) {
	symbol, ok := stringField(rec, "symbol")
	if !ok {
		return nil, fmt.Errorf("position record missing symbol")
	}

	rawSide, ok := stringField(rec, "side")
	if !ok {
		return nil, fmt.Errorf("position record missing side")
	}
	side, err := ParseSide(rawSide)
	if err != nil {
		// Legacy records sometimes carry order vocabulary in the side field.
		side, err = SideFromOrder(rawSide)
		if err != nil {
			return nil, fmt.Errorf("position record: %w", err)
		}
	}

	contractSize := 1.0
	if cs, ok := floatField(rec, "contract_size"); ok && cs > 0 {
		contractSize = cs
	}

	amount, ok := floatField(rec, "amount")
	if !ok {
		if amount, ok = floatField(rec, "quantity"); !ok {
			if contracts, has := floatField(rec, "contracts"); has {
				amount = contracts / contractSize
				ok = true
			}
		}
	}
	if !ok || amount <= 0 {
		return nil, fmt.Errorf("position record missing a positive amount/quantity/contracts field")
	}

	entryPrice, ok := floatField(rec, "entry_price")
	if !ok || entryPrice <= 0 {
		return nil, fmt.Errorf("position record missing a positive entry_price")
	}

	p := &Position{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Side:         side,
		Amount:       amount,
		EntryPrice:   entryPrice,
		Leverage:     1.0,
		ContractSize: contractSize,
		Status:       StatusOpen,
		OpenedAt:     time.Now().UTC(),
	}

	if id, ok := stringField(rec, "id"); ok && id != "" {
		p.ID = id
	}
	if lev, ok := floatField(rec, "leverage"); ok && lev >= 1.0 {
		p.Leverage = lev
	}
	if rawStatus, ok := stringField(rec, "status"); ok {
		status, err := ParseStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("position record: %w", err)
		}
		p.Status = status
	}
	if t, ok := timeField(rec, "opened_at"); ok {
		p.OpenedAt = t
	} else if t, ok := timeField(rec, "created_at"); ok {
		p.OpenedAt = t
	}

	if v, ok := floatField(rec, "stop_loss"); ok && v > 0 {
		p.StopLoss = &v
	}
	if v, ok := floatField(rec, "take_profit"); ok && v > 0 {
		p.TakeProfit = &v
	}
	if v, ok := floatField(rec, "liquidation_price"); ok && v > 0 {
		p.LiquidationPrice = &v
	}
	if v, ok := floatField(rec, "margin"); ok && v > 0 {
		p.Margin = &v
	}
	if v, ok := floatField(rec, "trailing_stop_distance"); ok && v > 0 {
		p.TrailingStopDistance = &v
		p.TrailingStopEnabled = true
	}
	if v, ok := floatField(rec, "trailing_stop_price"); ok && v > 0 {
		p.TrailingStopPrice = &v
	}
	p.AutoProtectiveEnabled = p.StopLoss != nil || p.TakeProfit != nil

	return p, nil
}

func stringField(rec map[string]interface{}, key string) (string, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(rec map[string]interface{}, key string) (float64, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func timeField(rec map[string]interface{}, key string) (time.Time, bool) {
	v, ok := rec[key]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
