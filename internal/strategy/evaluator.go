package strategy

import (
	"fmt"
	"math"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// Evaluator turns candle history into trade signals according to its
// configured strategy parameters. It returns nil when there is nothing to
// act on, including when history is still too short.
type Evaluator struct {
	symbol string
	params Params
}

// NewEvaluator creates an evaluator for the given symbol and parameter set.
func NewEvaluator(symbol string, ps ParamSet) (*Evaluator, error) {
	if ps.Params == nil {
		return nil, fmt.Errorf("param set has no params")
	}
	if err := ps.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s params: %w", ps.Params.StrategyID(), err)
	}
	return &Evaluator{symbol: symbol, params: ps.Params}, nil
}

// Evaluate produces at most one signal for the current candle window.
func (ev *Evaluator) Evaluate(candles []types.OHLCV, currentPrice float64) (*TradeSignal, error) {
	if currentPrice <= 0 {
		return nil, fmt.Errorf("current price must be positive, got %v", currentPrice)
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	switch p := ev.params.(type) {
	case MovingAverageCrossParams:
		return ev.evaluateMACross(p, closes, currentPrice), nil
	case RSIParams:
		return ev.evaluateRSI(p, closes, currentPrice), nil
	case MACDParams:
		return ev.evaluateMACD(p, closes, currentPrice), nil
	case BollingerBandsParams:
		return ev.evaluateBollinger(p, closes, currentPrice), nil
	default:
		return nil, fmt.Errorf("unsupported params type %T", ev.params)
	}
}

func (ev *Evaluator) evaluateMACross(p MovingAverageCrossParams, closes []float64, price float64) *TradeSignal {
	if len(closes) < p.LongPeriod {
		return nil
	}
	short := sma(closes, p.ShortPeriod)
	long := sma(closes, p.LongPeriod)
	if long == 0 {
		return nil
	}

	spread := (short - long) / long
	confidence := math.Min(math.Abs(spread)*50, 1.0)
	if spread > 0 {
		return ev.signal(DirectionBuy, price, confidence)
	}
	if spread < 0 {
		return ev.signal(DirectionSell, price, confidence)
	}
	return nil
}

func (ev *Evaluator) evaluateRSI(p RSIParams, closes []float64, price float64) *TradeSignal {
	value, ok := rsi(closes, p.Period)
	if !ok {
		return nil
	}

	if value <= p.Oversold {
		confidence := math.Min((p.Oversold-value)/p.Oversold+0.5, 1.0)
		return ev.signal(DirectionBuy, price, confidence)
	}
	if value >= p.Overbought {
		confidence := math.Min((value-p.Overbought)/(100-p.Overbought)+0.5, 1.0)
		return ev.signal(DirectionSell, price, confidence)
	}
	return nil
}

func (ev *Evaluator) evaluateMACD(p MACDParams, closes []float64, price float64) *TradeSignal {
	if len(closes) < p.SlowPeriod+p.SignalPeriod {
		return nil
	}

	fast := emaSeries(closes, p.FastPeriod)
	slow := emaSeries(closes, p.SlowPeriod)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signalLine := emaSeries(macd, p.SignalPeriod)

	last := len(closes) - 1
	histogram := macd[last] - signalLine[last]
	if histogram == 0 {
		return nil
	}

	confidence := math.Min(math.Abs(histogram)/closes[last]*100, 1.0)
	if histogram > 0 {
		return ev.signal(DirectionBuy, price, confidence)
	}
	return ev.signal(DirectionSell, price, confidence)
}

func (ev *Evaluator) evaluateBollinger(p BollingerBandsParams, closes []float64, price float64) *TradeSignal {
	if len(closes) < p.Period {
		return nil
	}

	mid := sma(closes, p.Period)
	sd := stddev(closes, p.Period, mid)
	if sd == 0 {
		return nil
	}

	upper := mid + p.StdDev*sd
	lower := mid - p.StdDev*sd

	if price <= lower {
		confidence := math.Min((lower-price)/sd+0.5, 1.0)
		return ev.signal(DirectionBuy, price, confidence)
	}
	if price >= upper {
		confidence := math.Min((price-upper)/sd+0.5, 1.0)
		return ev.signal(DirectionSell, price, confidence)
	}
	return nil
}

func (ev *Evaluator) signal(direction Direction, price, confidence float64) *TradeSignal {
	s := NewSignal(ev.symbol, direction, price, confidence, ev.params.StrategyID())
	return &s
}

// sma is the simple moving average of the last period values.
func sma(values []float64, period int) float64 {
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// stddev is the population standard deviation of the last period values
// around the given mean.
func stddev(values []float64, period int, mean float64) float64 {
	variance := 0.0
	for _, v := range values[len(values)-period:] {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(period))
}

// rsi is the Wilder relative strength index over the last period deltas.
func rsi(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}

	window := closes[len(closes)-(period+1):]
	gains, losses := 0.0, 0.0
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	if losses == 0 {
		return 100, true
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - 100/(1+rs), true
}

// emaSeries returns the EMA at every index of values.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}
