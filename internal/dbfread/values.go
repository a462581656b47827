package dbfread

import (
	"math"
	"strconv"
	"strings"
)

// xBase field type codes.
const (
	typeDate    = 'D'
	typeLogical = 'L'
	typeNumeric = 'N'
	typeFloat   = 'F'
)

// renderValue turns the fixed-width text of one field into its CSV form.
// Character and other untyped fields lose trailing NUL and space padding
// only, so leading spaces survive. Dates become YYYY-MM-DD, logicals
// True/False, and numbers their shortest form; blank or unset values of
// those types are empty. Text that does not parse as its declared type is
// written trimmed but otherwise unchanged.
func renderValue(kind byte, raw string) string {
	switch kind {
	case typeDate:
		return renderDate(raw)
	case typeLogical:
		return renderLogical(raw)
	case typeNumeric, typeFloat:
		return renderNumber(raw)
	default:
		return strings.TrimRight(raw, "\x00 ")
	}
}

func renderDate(raw string) string {
	s := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if s == "" || strings.Trim(s, "0") == "" {
		return ""
	}
	if len(s) != 8 {
		return s
	}
	if _, err := strconv.Atoi(s); err != nil {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

func renderLogical(raw string) string {
	s := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if s == "" {
		return ""
	}
	switch s[0] {
	case 'T', 't', 'Y', 'y':
		return "True"
	case 'F', 'f', 'N', 'n':
		return "False"
	default:
		return ""
	}
}

func renderNumber(raw string) string {
	s := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, ".,eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return formatFloat(f)
}

// formatFloat writes the shortest round-trip form, keeping a ".0" on whole
// numbers and switching to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
