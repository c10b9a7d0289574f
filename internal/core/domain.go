package core

import (
	"errors"
	"fmt"
	"strings"
)

// TotalTolerance is the allowed distance between the sum of percentages and 100.
const TotalTolerance = 0.1

type (
	// AllocationEntry is one named slice of a tokenomics breakdown.
	AllocationEntry struct {
		ID         string  `json:"id"`
		Label      string  `json:"label"`
		Percentage float64 `json:"percentage"`
		Color      string  `json:"color,omitempty"`
	}

	// Entries is an ordered allocation list.
	Entries []AllocationEntry

	// TotalError reports a sum that is not 100 within TotalTolerance.
	TotalError struct {
		Total float64
	}
)

var (
	ErrTotalMismatch = errors.New("total percentage must be 100")
	ErrMissingLabel  = errors.New("all entries must have a label")
	ErrEntryNotFound = errors.New("entry not found")
	ErrEmptyList     = errors.New("entry list cannot be empty")
)

func (e *TotalError) Error() string {
	return fmt.Sprintf("Total percentage is %.1f%%. It should be 100%%.", e.Total)
}

func (e *TotalError) Unwrap() error { return ErrTotalMismatch }

// NewEntry returns a placeholder entry as created by the "add" action.
func NewEntry(id string) AllocationEntry {
	return AllocationEntry{ID: id}
}

// Total sums every percentage. Non-finite values count as zero.
func (es Entries) Total() float64 {
	var total float64
	for _, e := range es {
		total += finiteOrZero(e.Percentage)
	}
	return total
}

// IsValidTotal reports whether total is within TotalTolerance of 100.
func IsValidTotal(total float64) bool {
	d := total - 100
	if d < 0 {
		d = -d
	}
	return d <= TotalTolerance
}

// Validate checks the generate-time invariants: the sum first, then labels.
func (es Entries) Validate() error {
	if len(es) == 0 {
		return ErrEmptyList
	}
	if total := es.Total(); !IsValidTotal(total) {
		return &TotalError{Total: total}
	}
	for _, e := range es {
		if strings.TrimSpace(e.Label) == "" {
			return ErrMissingLabel
		}
	}
	return nil
}

// Index returns the position of id, or -1.
func (es Entries) Index(id string) int {
	for i, e := range es {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares nothing with es.
func (es Entries) Clone() Entries {
	if es == nil {
		return nil
	}
	out := make(Entries, len(es))
	copy(out, es)
	return out
}

// WithLabel replaces the label of id verbatim.
func (es Entries) WithLabel(id, label string) (Entries, error) {
	i := es.Index(id)
	if i < 0 {
		return es, fmt.Errorf("set label on %q: %w", id, ErrEntryNotFound)
	}
	out := es.Clone()
	out[i].Label = label
	return out, nil
}

// WithPercentage replaces the percentage of id with the coerced value of raw.
func (es Entries) WithPercentage(id, raw string) (Entries, error) {
	i := es.Index(id)
	if i < 0 {
		return es, fmt.Errorf("set percentage on %q: %w", id, ErrEntryNotFound)
	}
	out := es.Clone()
	out[i].Percentage = ParsePercentage(raw)
	return out, nil
}

// Append adds e at the end of the list.
func (es Entries) Append(e AllocationEntry) Entries {
	out := make(Entries, 0, len(es)+1)
	out = append(out, es...)
	return append(out, e)
}

// Remove drops the entry with id. The last remaining entry is never removed;
// the boolean reports whether the list changed.
func (es Entries) Remove(id string) (Entries, bool) {
	if len(es) <= 1 {
		return es, false
	}
	i := es.Index(id)
	if i < 0 {
		return es, false
	}
	out := make(Entries, 0, len(es)-1)
	out = append(out, es[:i]...)
	out = append(out, es[i+1:]...)
	return out, true
}
