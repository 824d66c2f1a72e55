package stats

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/svante/internal/units"
)

// smallExponent is the largest decimal exponent rendered in exponent
// notation for values with uncertainty, matching %g's switch below 1e-4.
const smallExponent = -5

// FormatValue renders the value. With an uncertainty it is shown as
// value±uncertainty with one significant digit of uncertainty and the value
// rounded to the same decimal place, e.g. "46±1" or "22.5±0.4". When that
// place lies left of the units digit, a shared power of ten is factored out:
// "(2.34±0.02)×10⁴". Without an uncertainty, integers print in full and
// floats use general formatting.
func (s Stat) FormatValue() string {
	if s.uncert == nil {
		return formatPlain(s.value, s.kind)
	}
	return formatUncertain(s.value, *s.uncert, s.kind)
}

// FormatUnits renders the unit abbreviation, or "" for a unitless stat.
func (s Stat) FormatUnits(reg *units.Registry) (string, error) {
	if s.units == nil {
		return "", nil
	}
	return reg.Abbrev(*s.units)
}

// FormatDesc renders the description in brackets, or "" when absent.
func (s Stat) FormatDesc() string {
	if s.desc == nil {
		return ""
	}
	return "[" + *s.desc + "]"
}

// Format renders "<value> <units>", without the trailing space when the
// stat is unitless.
func (s Stat) Format(reg *units.Registry) (string, error) {
	u, err := s.FormatUnits(reg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s.FormatValue() + " " + u), nil
}

func formatPlain(v float64, kind Kind) string {
	if kind == KindInt {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatUncertain(v, u float64, kind Kind) string {
	if u == 0 {
		return formatPlain(v, kind) + "±0"
	}

	var ud, vd apd.Decimal
	if _, err := ud.SetFloat64(u); err != nil {
		return formatPlain(v, kind)
	}
	if _, err := vd.SetFloat64(v); err != nil {
		return formatPlain(v, kind)
	}

	// One significant digit of uncertainty fixes the rounding place.
	sig := apd.BaseContext.WithPrecision(1)
	sig.Rounding = apd.RoundHalfEven
	var ur apd.Decimal
	if _, err := sig.Round(&ur, &ud); err != nil {
		return formatPlain(v, kind)
	}
	place := ur.Exponent

	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven
	var vr apd.Decimal
	if _, err := ctx.Quantize(&vr, &vd, place); err != nil {
		return formatPlain(v, kind)
	}

	exp := place
	if !vr.IsZero() {
		exp = max(exp, vr.Exponent+int32(vr.NumDigits())-1)
	}

	if place <= 0 && exp > smallExponent {
		return vr.Text('f') + "±" + ur.Text('f')
	}

	vm := shifted(&vr, exp)
	um := shifted(&ur, exp)
	return "(" + vm.Text('f') + "±" + um.Text('f') + ")×10" + units.Superscript(int(exp))
}

// shifted returns d divided by 10^exp, keeping its coefficient.
func shifted(d *apd.Decimal, exp int32) *apd.Decimal {
	out := new(apd.Decimal).Set(d)
	out.Exponent -= exp
	return out
}
