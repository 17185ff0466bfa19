package redline

import (
	"strings"

	"github.com/hazyhaar/redline/diff"
	"github.com/hazyhaar/redline/ooxml"
)

// textBuilder accumulates styled text into an output document. Blank lines
// in appended text start a new output paragraph; single newlines are folded
// into spaces.
type textBuilder struct {
	doc     *ooxml.Document
	current *ooxml.Paragraph
}

func newTextBuilder() *textBuilder {
	doc := ooxml.New()
	return &textBuilder{doc: doc, current: doc.AddParagraph()}
}

// appendStyledText adds chunk to the current paragraph, advancing at every
// "\n\n" boundary it contains.
func (b *textBuilder) appendStyledText(chunk string, s Style) {
	parts := strings.Split(chunk, "\n\n")
	for i, part := range parts {
		if flat := strings.ReplaceAll(part, "\n", " "); flat != "" {
			s.apply(b.current.AddRun(flat), "")
		}
		if i < len(parts)-1 {
			b.advanceParagraph()
		}
	}
}

func (b *textBuilder) advanceParagraph() {
	b.current = b.doc.AddParagraph()
}

// RenderText aligns source and target character by character and builds the
// redline document.
func RenderText(source, target string, pal Palette) (*ooxml.Document, Stats) {
	a, b := []rune(source), []rune(target)
	out := newTextBuilder()
	var st Stats

	for _, op := range diff.Text(source, target) {
		src := string(a[op.I1:op.I2])
		dst := string(b[op.J1:op.J2])
		st.count(op.Tag)

		switch op.Tag {
		case diff.Equal:
			out.appendStyledText(src, Style{})
		case diff.Delete:
			out.appendStyledText(src, pal.deleted())
		case diff.Insert:
			out.appendStyledText(dst, pal.inserted())
		case diff.Replace:
			if NormalizeWhitespace(src) == NormalizeWhitespace(dst) {
				st.Whitespace++
				out.appendStyledText(src, pal.changed())
				continue
			}
			out.appendStyledText(src, pal.deleted())
			out.appendStyledText(dst, pal.inserted())
		}
	}
	return out.doc, st
}
