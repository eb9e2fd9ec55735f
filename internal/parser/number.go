package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingFloat matches the longest numeric prefix a lenient float reader
// accepts: optional sign, then Infinity or a decimal with optional exponent.
var leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParseNumber converts a raw cell into a float. Numeric cells pass through
// unchanged; text is normalized with NormalizeNumber and then parsed.
// ok is false when the cell holds no numeric value.
func ParseNumber(c Cell) (float64, bool) {
	if c.Numeric {
		return c.Number, !math.IsNaN(c.Number)
	}
	return ParseNumberString(c.Text)
}

// ParseNumberString parses a locale-ambiguous numeric string such as
// "1.234,56" or "-185,789". See NormalizeNumber for the separator rules.
func ParseNumberString(s string) (float64, bool) {
	return parseLeadingFloat(NormalizeNumber(s))
}

// NormalizeNumber rewrites s so that '.' is the only decimal separator and
// thousands separators are removed.
//
// When both ',' and '.' occur, whichever appears last is the decimal
// candidate. A comma followed by exactly three digits is always read as a
// thousands separator, so "1.234,567" is 1234567 and "-185,789" is -185789.
func NormalizeNumber(s string) string {
	trimmed := strings.TrimSpace(s)
	hasComma := strings.Contains(trimmed, ",")
	hasPeriod := strings.Contains(trimmed, ".")

	switch {
	case hasComma && hasPeriod:
		lastComma := strings.LastIndex(trimmed, ",")
		lastPeriod := strings.LastIndex(trimmed, ".")
		if lastComma > lastPeriod {
			noPeriods := strings.ReplaceAll(trimmed, ".", "")
			if threeDigitsAfter(trimmed, lastComma) {
				return strings.ReplaceAll(noPeriods, ",", "")
			}
			return strings.Replace(noPeriods, ",", ".", 1)
		}
		return strings.ReplaceAll(trimmed, ",", "")
	case hasComma:
		if threeDigitsAfter(trimmed, strings.LastIndex(trimmed, ",")) {
			return strings.ReplaceAll(trimmed, ",", "")
		}
		return strings.Replace(trimmed, ",", ".", 1)
	default:
		return trimmed
	}
}

// threeDigitsAfter reports whether exactly three ASCII digits follow the
// separator at idx and nothing else.
func threeDigitsAfter(s string, idx int) bool {
	tail := s[idx+1:]
	if len(tail) != 3 {
		return false
	}
	for i := 0; i < len(tail); i++ {
		if tail[i] < '0' || tail[i] > '9' {
			return false
		}
	}
	return true
}

// parseLeadingFloat parses the longest numeric prefix of s, so "12.5 nm"
// yields 12.5 and "n/a" yields no value.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(s)
	if m == "" {
		return math.NaN(), false
	}
	switch m {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out-of-range literals still come back as ±Inf or 0.
		if errors.Is(err, strconv.ErrRange) {
			return v, true
		}
		return math.NaN(), false
	}
	return v, true
}
