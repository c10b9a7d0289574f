// Package core provides percentage parsing for allocation input.
//
// Input coming from the form is forgiving: anything that does not start
// with a number becomes 0, and numbers are clamped to [0, 100].
package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingFloat matches the numeric prefix a browser's parseFloat would
// accept. Hex floats and spellings of infinity other than "Infinity" are not
// numbers there, so they are not numbers here either.
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

const infinity = "Infinity"

// ParsePercentage converts raw form input into a percentage in [0, 100].
//
// Examples:
//
//	ParsePercentage("12.5")  -> 12.5
//	ParsePercentage("40abc") -> 40
//	ParsePercentage("abc")   -> 0
//	ParsePercentage("-3")    -> 0
//	ParsePercentage("250")   -> 100
//	ParsePercentage("inf")   -> 0
//	ParsePercentage("0x1p4") -> 0
func ParsePercentage(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, infinity), strings.HasPrefix(s, "+"+infinity):
		return 100
	case strings.HasPrefix(s, "-"+infinity):
		return 0
	}

	m := leadingFloat.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return ClampPercentage(v)
}

// ClampPercentage bounds v to [0, 100]; NaN becomes 0.
func ClampPercentage(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 100)
}

// FormatPercent renders v with one decimal, e.g. "90.0%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(finiteOrZero(v), 'f', 1, 64) + "%"
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
