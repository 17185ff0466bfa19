package redline

import (
	"github.com/hazyhaar/redline/diff"
	"github.com/hazyhaar/redline/docpipe"
	"github.com/hazyhaar/redline/ooxml"
)

// RenderParagraphs aligns the body paragraphs of two DOCX documents and
// builds a redline that keeps each paragraph's run formatting.
func RenderParagraphs(source, target *docpipe.Document, pal Palette) (*ooxml.Document, Stats) {
	out := ooxml.New()
	var st Stats
	src, dst := source.Paragraphs, target.Paragraphs

	for _, op := range diff.Sequences(source.ParagraphTexts(), target.ParagraphTexts()) {
		st.count(op.Tag)

		switch op.Tag {
		case diff.Equal:
			cloneParagraphs(out, src[op.I1:op.I2], Style{})
		case diff.Delete:
			cloneParagraphs(out, src[op.I1:op.I2], pal.deleted())
		case diff.Insert:
			cloneParagraphs(out, dst[op.J1:op.J2], pal.inserted())
		case diff.Replace:
			if whitespaceOnly(src[op.I1:op.I2], dst[op.J1:op.J2]) {
				st.Whitespace++
				cloneParagraphs(out, src[op.I1:op.I2], pal.changed())
				continue
			}
			cloneParagraphs(out, src[op.I1:op.I2], pal.deleted())
			cloneParagraphs(out, dst[op.J1:op.J2], pal.inserted())
		}
	}
	return out, st
}

// whitespaceOnly reports whether two replaced ranges pair up one to one with
// only whitespace differences.
func whitespaceOnly(src, dst []docpipe.Paragraph) bool {
	if len(src) != len(dst) {
		return false
	}
	for i := range src {
		if NormalizeWhitespace(src[i].Text()) != NormalizeWhitespace(dst[i].Text()) {
			return false
		}
	}
	return true
}

func cloneParagraphs(doc *ooxml.Document, paras []docpipe.Paragraph, s Style) {
	for _, p := range paras {
		cloneParagraph(doc, p, s)
	}
}

func cloneParagraph(doc *ooxml.Document, src docpipe.Paragraph, s Style) *ooxml.Paragraph {
	p := doc.AddParagraph()
	p.Alignment = src.Alignment
	for _, r := range src.Runs {
		run := p.AddRun(r.Text)
		if r.Bold != nil {
			run.Bold = ooxml.Bool(*r.Bold)
		}
		if r.Italic != nil {
			run.Italic = ooxml.Bool(*r.Italic)
		}
		run.Underline = r.Underline
		run.FontName = r.FontName
		run.FontSize = r.FontSize
		s.apply(run, r.Color)
	}
	return p
}
