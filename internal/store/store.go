// Package store holds the canonical allocation list of one workspace and
// its display mode. Every mutation goes through SetEntries so colour
// assignment is applied uniformly.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"graphfi/internal/core"
	"graphfi/internal/notify"
)

// Mode is the workspace display state.
type Mode int

const (
	Editing Mode = iota
	Displaying
)

func (m Mode) String() string {
	switch m {
	case Editing:
		return "editing"
	case Displaying:
		return "displaying"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

const (
	msgGenerated    = "Chart generated successfully!"
	msgMissingLabel = "All entries must have a label."
)

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Entries core.Entries
	Mode    Mode
	Total   float64
}

// ShowChart reports whether the chart should be displayed.
func (s Snapshot) ShowChart() bool { return s.Mode == Displaying }

// ValidTotal reports whether the derived total is within tolerance of 100.
func (s Snapshot) ValidTotal() bool { return core.IsValidTotal(s.Total) }

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries core.Entries
	mode    Mode
	palette core.Palette
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how new entry IDs are produced.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

// New builds a store seeded with initial. An empty initial list is
// replaced by a single placeholder entry so the list is never empty.
func New(initial core.Entries, opts ...Option) *Store {
	s := newStore(opts)
	if len(initial) == 0 {
		initial = core.Entries{core.NewEntry(s.newID())}
	}
	s.entries = core.AssignColors(initial, s.palette)
	return s
}

// NewDefault builds a store seeded with the default breakdown.
func NewDefault(opts ...Option) *Store {
	s := newStore(opts)
	s.entries = core.AssignColors(core.DefaultEntries(s.newID), s.palette)
	return s
}

func newStore(opts []Option) *Store {
	s := &Store{
		palette: core.DefaultPalette,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Entries: s.entries.Clone(),
		Mode:    s.mode,
		Total:   s.entries.Total(),
	}
}

// Entries returns a copy of the current list.
func (s *Store) Entries() core.Entries {
	return s.Snapshot().Entries
}

// Mode returns the current display mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetEntries replaces the list, filling empty colours by position.
func (s *Store) SetEntries(list core.Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(list)
}

func (s *Store) setLocked(list core.Entries) error {
	if len(list) == 0 {
		return core.ErrEmptyList
	}
	s.entries = core.AssignColors(list, s.palette)
	return nil
}

// RequestGenerate validates the list and switches to Displaying on success.
// On failure the mode is left untouched, an error notification describes
// the violated invariant and the validation error is returned.
func (s *Store) RequestGenerate(n notify.Notifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.entries.Validate(); err != nil {
		var te *core.TotalError
		switch {
		case errors.As(err, &te):
			notify.Errorf(n, te.Error())
		case errors.Is(err, core.ErrMissingLabel):
			notify.Errorf(n, msgMissingLabel)
		default:
			notify.Errorf(n, err.Error())
		}
		return err
	}
	s.mode = Displaying
	notify.Successf(n, msgGenerated)
	return nil
}

// Reset returns to Editing. Entries are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = Editing
}

// AddEntry appends a placeholder entry and returns it with its assigned colour.
func (s *Store) AddEntry() core.AllocationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.NewEntry(s.newID())
	_ = s.setLocked(s.entries.Append(e))
	return s.entries[len(s.entries)-1]
}

// RemoveEntry deletes id. It reports false when the entry is the last one
// or does not exist.
func (s *Store) RemoveEntry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, ok := s.entries.Remove(id)
	if !ok {
		return false
	}
	_ = s.setLocked(out)
	return true
}

// SetLabel replaces the label of id verbatim.
func (s *Store) SetLabel(id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.entries.WithLabel(id, label)
	if err != nil {
		return err
	}
	return s.setLocked(out)
}

// SetPercentage coerces raw and stores it on id, returning the stored value.
func (s *Store) SetPercentage(id, raw string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.entries.WithPercentage(id, raw)
	if err != nil {
		return 0, err
	}
	if err := s.setLocked(out); err != nil {
		return 0, err
	}
	return s.entries[s.entries.Index(id)].Percentage, nil
}
