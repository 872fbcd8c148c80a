package strategy

import (
	"encoding/json"
	"fmt"
)

// Params is a strictly-typed parameter record for one strategy. Strategy
// parameters are a tagged union keyed by strategy identifier, never an
// untyped key-value bag.
type Params interface {
	StrategyID() string
	Validate() error
}

// Strategy identifiers used as union tags.
const (
	StrategyMovingAverageCross = "moving_average"
	StrategyRSI                = "rsi"
	StrategyMACD               = "macd"
	StrategyBollingerBands     = "bollinger_bands"
)

// MovingAverageCrossParams configures a moving-average crossover strategy.
type MovingAverageCrossParams struct {
	ShortPeriod int `json:"short_period"`
	LongPeriod  int `json:"long_period"`
}

func (MovingAverageCrossParams) StrategyID() string { return StrategyMovingAverageCross }

func (p MovingAverageCrossParams) Validate() error {
	if p.ShortPeriod < 1 || p.LongPeriod < 1 {
		return fmt.Errorf("moving average periods must be positive")
	}
	if p.ShortPeriod >= p.LongPeriod {
		return fmt.Errorf("short period %d must be below long period %d", p.ShortPeriod, p.LongPeriod)
	}
	return nil
}

// RSIParams configures an RSI strategy.
type RSIParams struct {
	Period     int     `json:"period"`
	Overbought float64 `json:"overbought"`
	Oversold   float64 `json:"oversold"`
}

func (RSIParams) StrategyID() string { return StrategyRSI }

func (p RSIParams) Validate() error {
	if p.Period < 2 {
		return fmt.Errorf("rsi period must be at least 2, got %d", p.Period)
	}
	if p.Oversold <= 0 || p.Overbought >= 100 || p.Oversold >= p.Overbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 < oversold < overbought < 100")
	}
	return nil
}

// MACDParams configures a MACD strategy.
type MACDParams struct {
	FastPeriod   int `json:"fast_period"`
	SlowPeriod   int `json:"slow_period"`
	SignalPeriod int `json:"signal_period"`
}

func (MACDParams) StrategyID() string { return StrategyMACD }

func (p MACDParams) Validate() error {
	if p.FastPeriod < 1 || p.SlowPeriod < 1 || p.SignalPeriod < 1 {
		return fmt.Errorf("macd periods must be positive")
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("macd fast period %d must be below slow period %d", p.FastPeriod, p.SlowPeriod)
	}
	return nil
}

// BollingerBandsParams configures a Bollinger Bands strategy.
type BollingerBandsParams struct {
	Period int     `json:"period"`
	StdDev float64 `json:"std_dev"`
}

func (BollingerBandsParams) StrategyID() string { return StrategyBollingerBands }

func (p BollingerBandsParams) Validate() error {
	if p.Period < 2 {
		return fmt.Errorf("bollinger period must be at least 2, got %d", p.Period)
	}
	if p.StdDev <= 0 {
		return fmt.Errorf("bollinger std dev must be positive, got %v", p.StdDev)
	}
	return nil
}

// DefaultParams returns the stock parameter record for a strategy identifier.
func DefaultParams(strategyID string) (Params, error) {
	switch strategyID {
	case StrategyMovingAverageCross:
		return MovingAverageCrossParams{ShortPeriod: 9, LongPeriod: 26}, nil
	case StrategyRSI:
		return RSIParams{Period: 14, Overbought: 70, Oversold: 30}, nil
	case StrategyMACD:
		return MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}, nil
	case StrategyBollingerBands:
		return BollingerBandsParams{Period: 20, StdDev: 2}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategyID)
	}
}

// ParamSet is the serialized form of the union: the strategy tag plus its
// typed parameter record.
type ParamSet struct {
	Strategy string `json:"strategy"`
	Params   Params `json:"params"`
}

// paramSetEnvelope is the intermediate wire shape for (de)serialization.
type paramSetEnvelope struct {
	Strategy string          `json:"strategy"`
	Params   json.RawMessage `json:"params"`
}

// UnmarshalJSON decodes the union by dispatching on the strategy tag.
func (ps *ParamSet) UnmarshalJSON(data []byte) error {
	var env paramSetEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var params Params
	switch env.Strategy {
	case StrategyMovingAverageCross:
		var p MovingAverageCrossParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return err
		}
		params = p
	case StrategyRSI:
		var p RSIParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return err
		}
		params = p
	case StrategyMACD:
		var p MACDParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return err
		}
		params = p
	case StrategyBollingerBands:
		var p BollingerBandsParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return err
		}
		params = p
	default:
		return fmt.Errorf("unknown strategy %q", env.Strategy)
	}

	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid %s params: %w", env.Strategy, err)
	}

	ps.Strategy = env.Strategy
	ps.Params = params
	return nil
}

// MarshalJSON encodes the union with its strategy tag.
func (ps ParamSet) MarshalJSON() ([]byte, error) {
	if ps.Params == nil {
		return nil, fmt.Errorf("param set has no params")
	}
	raw, err := json.Marshal(ps.Params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(paramSetEnvelope{Strategy: ps.Params.StrategyID(), Params: raw})
}
