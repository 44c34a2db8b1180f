package engine

import (
	"math"
	"strconv"
)

const (
	sentinelInf    = "Infinity"
	sentinelNegInf = "-Infinity"
)

func isSentinel(s string) bool {
	return s == sentinelInf || s == sentinelNegInf
}

// parseOperand reads an operand buffer. Partial entries such as "", "." or
// "-" report ok=false so callers can substitute their own default.
func parseOperand(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func operandOr(s string, fallback float64) float64 {
	if v, ok := parseOperand(s); ok {
		return v
	}
	return fallback
}

// roundTo rounds v to the given number of decimal places. Values too large to
// scale are returned unchanged; they carry no fractional noise anyway.
func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow10(places)
	scaled := v * scale
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / scale
}

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return sentinelInf
	case math.IsInf(v, -1):
		return sentinelNegInf
	case v == 0:
		return "0"
	case math.Abs(v) >= 1e21:
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
