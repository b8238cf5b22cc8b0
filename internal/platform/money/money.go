// Package money holds the currency arithmetic shared by invoicing and payroll.
// Every amount that is stored or displayed is rounded to two decimal places.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const Places = 2

var hundred = decimal.NewFromInt(100)

// Amounts outside these bounds are treated as not numeric. Rounding or
// formatting a value like 1e20000000 allocates every digit.
const (
	maxExponent = 15
	minExponent = -12
)

var maxMagnitude = decimal.New(1, maxExponent)

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Percent returns base * rate / 100 without rounding.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MustParse is for constants and tests.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// FromString parses a stored two-decimal string, returning zero for anything unparsable.
func FromString(s string) decimal.Decimal {
	d, ok := Parse(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Parse converts a loosely typed value (JSON number, numeric string, Go number)
// to a decimal. The second result is false when the value is not numeric or
// its magnitude is at least 1e15 or it carries more than 12 decimal places.
func Parse(value any) (decimal.Decimal, bool) {
	d, ok := parse(value)
	if !ok || !inRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// inRange checks the exponent before comparing so the comparison never
// rescales a huge exponent.
func inRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > maxExponent || exp < minExponent {
		return false
	}
	return d.Abs().Cmp(maxMagnitude) < 0
}

func parse(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v).Round(-minExponent), true
	case float32:
		return parse(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parse(string(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Input is an amount as typed by an operator. Decoding never fails: a value
// that is not a number leaves Valid false and Value zero, so derived totals can
// still be computed while validation reports the field.
type Input struct {
	Value   decimal.Decimal
	Valid   bool
	Present bool
}

func NewInput(d decimal.Decimal) Input {
	return Input{Value: d, Valid: true, Present: true}
}

func (in *Input) UnmarshalJSON(data []byte) error {
	*in = Input{Present: true}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		in.Present = false
		return nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return nil
		}
		raw = unquoted
	}
	if d, ok := Parse(raw); ok {
		in.Value = d
		in.Valid = true
	}
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	if !in.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(in.Value.String())), nil
}

// Coerced is the value used by the calculators: malformed input counts as zero.
func (in Input) Coerced() decimal.Decimal {
	if !in.Valid {
		return decimal.Zero
	}
	return in.Value
}
