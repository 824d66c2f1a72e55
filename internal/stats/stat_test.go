package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InfersKind(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  Kind
		want  float64
	}{
		{"int", 15, KindInt, 15},
		{"int64", int64(-3), KindInt, -3},
		{"uint8", uint8(7), KindInt, 7},
		{"float64", 22.5, KindFloat, 22.5},
		{"float32", float32(0.5), KindFloat, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, st.Kind())
			assert.Equal(t, tt.want, st.Value())
		})
	}
}

func TestNew_AsKindCasts(t *testing.T) {
	st, err := New(3.9, AsKind(KindInt))
	require.NoError(t, err)
	assert.Equal(t, KindInt, st.Kind())
	assert.Equal(t, 3.0, st.Value())

	st, err = New(4, AsKind(KindFloat))
	require.NoError(t, err)
	assert.Equal(t, KindFloat, st.Kind())

	_, err = New(4, AsKind("complex"))
	assert.True(t, IsUnsupportedValueType(err))
}

func TestNew_RejectsUnsupportedValues(t *testing.T) {
	for _, v := range []any{"46", true, nil, []float64{1}} {
		_, err := New(v)
		assert.True(t, IsUnsupportedValueType(err), "value %#v", v)
	}

	_, err := New(math.NaN())
	assert.Error(t, err)
	_, err = New(math.Inf(1))
	assert.Error(t, err)
}

func TestNew_Uncertainty(t *testing.T) {
	st, err := New(46.3, Uncertainty(1.2))
	require.NoError(t, err)
	u, ok := st.Uncertainty()
	assert.True(t, ok)
	assert.Equal(t, 1.2, u)

	_, err = New(1.0, Uncertainty(-0.1))
	assert.Error(t, err)
	_, err = New(1.0, Uncertainty(math.Inf(1)))
	assert.Error(t, err)

	st, err = New(1.0)
	require.NoError(t, err)
	_, ok = st.Uncertainty()
	assert.False(t, ok)
}

func TestNew_CountDerivesUncertainty(t *testing.T) {
	st, err := New(23409, Count())
	require.NoError(t, err)
	u, ok := st.Uncertainty()
	require.True(t, ok)
	assert.InDelta(t, 153.0, u, 1e-9)

	_, err = New(23409, Count(), Uncertainty(1))
	assert.ErrorIs(t, err, ErrCountWithUncertainty)

	_, err = New(-1, Count())
	assert.Error(t, err)
}

func TestStat_OptionalAttributes(t *testing.T) {
	st, err := New(190.0, Units("K"), Description("min temperature"))
	require.NoError(t, err)

	units, ok := st.Units()
	assert.True(t, ok)
	assert.Equal(t, "K", units)
	desc, ok := st.Description()
	assert.True(t, ok)
	assert.Equal(t, "min temperature", desc)
	assert.Equal(t, 0, st.RunNo())
}

func TestStat_JSON(t *testing.T) {
	st, err := New(46.3, Uncertainty(1.2), Units("kJ/mol"))
	require.NoError(t, err)
	st = st.withRun(2)

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"val":46.3,"val_type":"float","uncert":1.2,"units":"kJ/mol","run_no":2}`, string(data))

	var back Stat
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, st, back)
}

func TestStat_UnmarshalInfersKind(t *testing.T) {
	var st Stat
	require.NoError(t, json.Unmarshal([]byte(`{"val":15,"run_no":1}`), &st))
	assert.Equal(t, KindInt, st.Kind())

	require.NoError(t, json.Unmarshal([]byte(`{"val":1.5e2,"run_no":1}`), &st))
	assert.Equal(t, KindFloat, st.Kind())
	assert.Equal(t, 150.0, st.Value())

	assert.Error(t, json.Unmarshal([]byte(`{"run_no":1}`), &st))
	assert.Error(t, json.Unmarshal([]byte(`{"val":1,"val_type":"str"}`), &st))
}
