package core

// Palette is an ordered list of display colours, assigned cyclically by position.
type Palette []string

// DefaultPalette holds the purple, blue, pink, orange, green, yellow, red and gray swatches.
var DefaultPalette = Palette{
	"#8B5CF6",
	"#60A5FA",
	"#EC4899",
	"#F97316",
	"#10B981",
	"#FBBF24",
	"#EF4444",
	"#6B7280",
}

// ColorAt returns the palette colour for position i.
func (p Palette) ColorAt(i int) string {
	if len(p) == 0 {
		return ""
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// AssignColors fills every empty colour with the palette colour for its
// position. Entries that already carry a colour keep it.
func AssignColors(es Entries, p Palette) Entries {
	if len(p) == 0 {
		p = DefaultPalette
	}
	out := es.Clone()
	for i := range out {
		if out[i].Color == "" {
			out[i].Color = p.ColorAt(i)
		}
	}
	return out
}

// DefaultEntries is the breakdown a fresh workspace starts with. newID is
// called once per entry.
func DefaultEntries(newID func() string) Entries {
	seed := []struct {
		label string
		pct   float64
	}{
		{"Private Investors", 20},
		{"Public Sale", 15},
		{"Team", 20},
		{"Foundation", 25},
		{"Ecosystem", 20},
	}
	out := make(Entries, 0, len(seed))
	for _, s := range seed {
		out = append(out, AllocationEntry{ID: newID(), Label: s.label, Percentage: s.pct})
	}
	return AssignColors(out, DefaultPalette)
}
