package units

import (
	"strconv"
	"strings"
)

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹', '-': '⁻',
}

// Superscript renders an integer exponent with Unicode superscript digits.
func Superscript(n int) string {
	var b strings.Builder
	for _, r := range strconv.Itoa(n) {
		b.WriteRune(superscripts[r])
	}
	return b.String()
}

// Abbrev renders the unit in short symbolic form, e.g. "kJ/mol", "m²" or
// "1/s". Numerator terms are joined with "·" and every denominator term is
// introduced by its own "/". The dimensionless unit renders as "".
func (u Unit) Abbrev() string {
	var num, den []string
	for _, t := range u.terms {
		switch {
		case t.exp == 1:
			num = append(num, t.symbol)
		case t.exp > 1:
			num = append(num, t.symbol+Superscript(t.exp))
		case t.exp == -1:
			den = append(den, t.symbol)
		default:
			den = append(den, t.symbol+Superscript(-t.exp))
		}
	}
	if u.scale != 0 && u.scale != 1 {
		num = append([]string{strconv.FormatFloat(u.scale, 'g', -1, 64)}, num...)
	}
	if len(num) == 0 && len(den) == 0 {
		return ""
	}
	out := strings.Join(num, "·")
	if out == "" {
		out = "1"
	}
	for _, d := range den {
		out += "/" + d
	}
	return out
}
