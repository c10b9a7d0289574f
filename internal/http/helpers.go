package http

import (
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"

	"graphfi/internal/core"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(stripControl(s))
}

// stripControl removes control characters except tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// formatInputValue renders a percentage for an <input type="number">.
func formatInputValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// revision fingerprints the entries so the chart image URL changes with them.
func revision(es core.Entries) string {
	h := fnv.New64a()
	for _, e := range es {
		h.Write([]byte(e.ID))
		h.Write([]byte{0})
		h.Write([]byte(e.Label))
		h.Write([]byte{0})
		h.Write([]byte(e.Color))
		h.Write([]byte(strconv.FormatFloat(e.Percentage, 'g', -1, 64)))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 36)
}
