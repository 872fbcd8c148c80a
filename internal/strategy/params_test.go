package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamSetUnmarshalDispatch(t *testing.T) {
	raw := `{"strategy":"rsi","params":{"period":14,"overbought":70,"oversold":30}}`

	var ps ParamSet
	require.NoError(t, json.Unmarshal([]byte(raw), &ps))

	assert.Equal(t, StrategyRSI, ps.Strategy)
	rsi, ok := ps.Params.(RSIParams)
	require.True(t, ok, "expected RSIParams, got %T", ps.Params)
	assert.Equal(t, 14, rsi.Period)
	assert.Equal(t, 70.0, rsi.Overbought)
	assert.Equal(t, 30.0, rsi.Oversold)
}

func TestParamSetUnmarshalAllVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want interface{}
	}{
		{
			name: "moving average",
			raw:  `{"strategy":"moving_average","params":{"short_period":9,"long_period":26}}`,
			want: MovingAverageCrossParams{ShortPeriod: 9, LongPeriod: 26},
		},
		{
			name: "macd",
			raw:  `{"strategy":"macd","params":{"fast_period":12,"slow_period":26,"signal_period":9}}`,
			want: MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9},
		},
		{
			name: "bollinger",
			raw:  `{"strategy":"bollinger_bands","params":{"period":20,"std_dev":2}}`,
			want: BollingerBandsParams{Period: 20, StdDev: 2},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ps ParamSet
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &ps))
			assert.Equal(t, tc.want, ps.Params)
		})
	}
}

func TestParamSetUnmarshalRejectsUnknownStrategy(t *testing.T) {
	var ps ParamSet
	err := json.Unmarshal([]byte(`{"strategy":"martingale","params":{}}`), &ps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestParamSetUnmarshalRejectsInvalidParams(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"short above long", `{"strategy":"moving_average","params":{"short_period":30,"long_period":10}}`},
		{"rsi thresholds inverted", `{"strategy":"rsi","params":{"period":14,"overbought":30,"oversold":70}}`},
		{"macd fast above slow", `{"strategy":"macd","params":{"fast_period":26,"slow_period":12,"signal_period":9}}`},
		{"bollinger zero stddev", `{"strategy":"bollinger_bands","params":{"period":20,"std_dev":0}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ps ParamSet
			assert.Error(t, json.Unmarshal([]byte(tc.raw), &ps))
		})
	}
}

func TestParamSetRoundTrip(t *testing.T) {
	ps := ParamSet{Params: MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}}

	data, err := json.Marshal(ps)
	require.NoError(t, err)

	var back ParamSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, StrategyMACD, back.Strategy)
	assert.Equal(t, ps.Params, back.Params)
}

func TestDefaultParams(t *testing.T) {
	for _, id := range []string{StrategyMovingAverageCross, StrategyRSI, StrategyMACD, StrategyBollingerBands} {
		p, err := DefaultParams(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, p.StrategyID())
		assert.NoError(t, p.Validate(), id)
	}

	_, err := DefaultParams("grid")
	assert.Error(t, err)
}
