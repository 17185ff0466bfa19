// Package ooxml builds WordprocessingML (.docx) documents from scratch.
//
// The builder covers what a redline needs: paragraphs with alignment, and runs
// carrying bold, italic, underline, font, size, colour and highlight. The
// document is kept in memory and written once by Save or WriteTo.
//
// Usage:
//
//	doc := ooxml.New()
//	p := doc.AddParagraph()
//	r := p.AddRun("deleted text")
//	r.Color = "FF0000"
//	if err := doc.Save("out.docx"); err != nil {
//	    // handle error
//	}
package ooxml

import "strings"

// Document is an in-memory .docx under construction.
type Document struct {
	paragraphs []*Paragraph
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// AddParagraph appends an empty paragraph and returns it.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// Paragraphs returns the paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	return d.paragraphs
}

// Text returns the visible text, paragraphs joined by "\n".
func (d *Document) Text() string {
	lines := make([]string, len(d.paragraphs))
	for i, p := range d.paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// Paragraph is a block of runs.
type Paragraph struct {
	// Alignment is the w:jc value (left, center, right, both, ...). Empty inherits.
	Alignment string
	Runs      []*Run
}

// AddRun appends a run with the given text and no explicit formatting.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{Text: text}
	p.Runs = append(p.Runs, r)
	return r
}

// Text concatenates the text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Run is a span of text sharing one set of properties. Zero values mean
// "inherit from the paragraph or document defaults".
type Run struct {
	// Text may contain '\t' (written as w:tab) and '\n' (written as w:br).
	Text string

	Bold   *bool
	Italic *bool
	// Underline is the w:u value, e.g. "single", "double", "none".
	Underline string
	FontName  string
	// FontSize is in half-points (w:sz), 24 = 12pt.
	FontSize int
	// Color is a 6-digit hex RGB value without '#'.
	Color string
	// Highlight is a w:highlight name, e.g. "yellow".
	Highlight string
}

// HasFormatting reports whether any property is set explicitly.
func (r *Run) HasFormatting() bool {
	return r.Bold != nil || r.Italic != nil || r.Underline != "" || r.FontName != "" ||
		r.FontSize != 0 || r.Color != "" || r.Highlight != ""
}

// Bool returns a pointer to v, for setting tri-state run properties.
func Bool(v bool) *bool {
	return &v
}
