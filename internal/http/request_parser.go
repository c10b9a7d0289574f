// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes bounds form and JSON request bodies.
const maxBodyBytes = 64 << 10

// Editable entry fields.
const (
	FieldLabel      = "label"
	FieldPercentage = "percentage"
)

var errUnknownField = errors.New("unknown field")

// EntryEdit is a single field edit of one entry.
type EntryEdit struct {
	Field string
	Value string
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, as sent by htmx (json-enc or
// the default encoding) and by scripts.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Value returns the value of key as sent, without trimming.
func (p *RequestBodyParser) Value(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Get returns a trimmed value with control characters removed.
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(p.Value(key)))
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseEntryEdit reads field=label|percentage and value from the request
// body. Labels are kept exactly as sent; html/template escapes them on output.
func ParseEntryEdit(r *http.Request) (EntryEdit, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return EntryEdit{}, fmt.Errorf("parse entry edit: %w", err)
	}

	edit := EntryEdit{Field: strings.ToLower(p.Get("field"))}
	switch edit.Field {
	case FieldLabel:
		edit.Value = p.Value("value")
	case FieldPercentage:
		edit.Value = p.Get("value")
	default:
		return EntryEdit{}, fmt.Errorf("parse entry edit: %w %q", errUnknownField, edit.Field)
	}
	return edit, nil
}

// minScale keeps the canvas large enough to draw.
const minScale = 0.25

// ParseScale reads a positive render scale from query, falling back to def
// and bounding it to [minScale, max].
func ParseScale(query url.Values, def, max float64) float64 {
	v := strings.TrimSpace(query.Get("scale"))
	if v == "" {
		return def
	}
	s, err := strconv.ParseFloat(v, 64)
	if err != nil || s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return def
	}
	return math.Min(math.Max(s, minScale), max)
}

// coercionChanged reports whether the stored value differs from what the
// user typed, so the input must be rewritten with the coerced value.
func coercionChanged(raw string, stored float64) bool {
	if raw == "" {
		return false
	}
	typed, err := strconv.ParseFloat(raw, 64)
	return err != nil || typed != stored
}
