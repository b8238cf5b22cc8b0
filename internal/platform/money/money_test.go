package money

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAlwaysTwoPlaces(t *testing.T) {
	assert.Equal(t, "94.50", Format(MustParse("94.5")))
	assert.Equal(t, "100.00", Format(decimal.NewFromInt(100)))
	assert.Equal(t, "-3.10", Format(MustParse("-3.1")))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.True(t, Round(MustParse("2.345")).Equal(MustParse("2.35")))
	assert.True(t, Round(MustParse("-2.345")).Equal(MustParse("-2.35")))
	assert.True(t, Round(MustParse("999.99999999")).Equal(MustParse("1000")))
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(2500), decimal.NewFromInt(12)).Equal(decimal.NewFromInt(300)))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{name: "float", value: 12.5, want: "12.5", ok: true},
		{name: "numeric string", value: " 7.25 ", want: "7.25", ok: true},
		{name: "json number", value: json.Number("3"), want: "3", ok: true},
		{name: "text", value: "abc", want: "0", ok: false},
		{name: "nan", value: math.NaN(), want: "0", ok: false},
		{name: "inf", value: math.Inf(1), want: "0", ok: false},
		{name: "nil", value: nil, want: "0", ok: false},
		{name: "bool", value: true, want: "0", ok: false},
		{name: "largest accepted", value: "999999999999999.99", want: "999999999999999.99", ok: true},
		{name: "twelve places", value: "0.000000000001", want: "0.000000000001", ok: true},
		{name: "at magnitude bound", value: "1e15", want: "0", ok: false},
		{name: "negative at bound", value: "-1000000000000000", want: "0", ok: false},
		{name: "huge exponent", value: "1e20000000", want: "0", ok: false},
		{name: "tiny exponent", value: "1e-20000000", want: "0", ok: false},
		{name: "too many places", value: "0.0000000000001", want: "0", ok: false},
		{name: "huge float", value: 1e300, want: "0", ok: false},
		{name: "float is rounded", value: 1.0 / 3.0, want: "0.333333333333", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(MustParse(tt.want)), "got %s", got)
		})
	}
}

func TestInputRejectsOutOfRangeAmounts(t *testing.T) {
	var payload struct {
		Quantity  Input `json:"quantity"`
		UnitPrice Input `json:"unitPrice"`
	}
	start := time.Now()
	err := json.Unmarshal([]byte(`{"quantity": 1e20000000, "unitPrice": "9e999999999"}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Quantity.Present)
	assert.False(t, payload.Quantity.Valid)
	assert.False(t, payload.UnitPrice.Valid)
	assert.Equal(t, "0.00", Format(Round(payload.Quantity.Coerced().Mul(payload.UnitPrice.Coerced()))))
	assert.Less(t, time.Since(start), time.Second)
}

func TestInputDecodingNeverFails(t *testing.T) {
	var payload struct {
		A Input `json:"a"`
		B Input `json:"b"`
		C Input `json:"c"`
		D Input `json:"d"`
		E Input `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 2, "b": "50.5", "c": "twelve", "d": null, "e": {"x": 1}}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.A.Valid)
	assert.True(t, payload.A.Value.Equal(decimal.NewFromInt(2)))
	assert.True(t, payload.B.Valid)
	assert.True(t, payload.B.Value.Equal(MustParse("50.5")))
	assert.False(t, payload.C.Valid)
	assert.True(t, payload.C.Present)
	assert.True(t, payload.C.Coerced().IsZero())
	assert.False(t, payload.D.Present)
	assert.False(t, payload.E.Valid)
}
