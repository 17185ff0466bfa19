package redline

import (
	"strings"

	"github.com/hazyhaar/redline/ooxml"
)

// Style is the diff styling applied to an appended run. An empty Color keeps
// the source run colour; an empty Highlight applies none.
type Style struct {
	Color     string
	Highlight string
}

func (s Style) apply(r *ooxml.Run, sourceColor string) {
	if s.Color != "" {
		r.Color = s.Color
	} else if sourceColor != "" {
		r.Color = sourceColor
	}
	if s.Highlight != "" {
		r.Highlight = s.Highlight
	}
}

// Palette holds the colours shared by both comparators.
type Palette struct {
	// Insertion and Deletion are hex RGB run colours.
	Insertion string `yaml:"insertion" json:"insertion"`
	Deletion  string `yaml:"deletion" json:"deletion"`
	// ChangeMarker is the w:highlight name for whitespace-only changes.
	ChangeMarker string `yaml:"change_marker" json:"change_marker"`
}

// DefaultPalette is blue insertions, red deletions, yellow change markers.
func DefaultPalette() Palette {
	return Palette{
		Insertion:    "0000FF",
		Deletion:     "FF0000",
		ChangeMarker: "yellow",
	}
}

func (p Palette) inserted() Style { return Style{Color: p.Insertion} }
func (p Palette) deleted() Style  { return Style{Color: p.Deletion} }
func (p Palette) changed() Style  { return Style{Highlight: p.ChangeMarker} }

func (p *Palette) defaults() {
	d := DefaultPalette()
	if p.Insertion == "" {
		p.Insertion = d.Insertion
	}
	if p.Deletion == "" {
		p.Deletion = d.Deletion
	}
	if p.ChangeMarker == "" {
		p.ChangeMarker = d.ChangeMarker
	}
	p.Insertion = strings.ToUpper(strings.TrimPrefix(p.Insertion, "#"))
	p.Deletion = strings.ToUpper(strings.TrimPrefix(p.Deletion, "#"))
}

// NormalizeWhitespace collapses every whitespace run to one space and trims
// both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
