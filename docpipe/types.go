// CLAUDE:SUMMARY Defines Format, Document, Paragraph and Run types produced by docpipe extraction.
package docpipe

import "strings"

// Format identifies a document type.
type Format string

const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// Run is a span of text with optional character formatting. Nil or empty
// fields mean the attribute is absent and inherits the document default.
type Run struct {
	Text      string `json:"text"`
	Bold      *bool  `json:"bold,omitempty"`
	Italic    *bool  `json:"italic,omitempty"`
	Underline string `json:"underline,omitempty"` // w:u value
	FontName  string `json:"font_name,omitempty"`
	FontSize  int    `json:"font_size,omitempty"` // half-points
	Color     string `json:"color,omitempty"`     // hex RGB, "auto" dropped
}

// Paragraph is an ordered sequence of runs. Identity is positional.
type Paragraph struct {
	Alignment string `json:"alignment,omitempty"` // w:jc value
	Runs      []Run  `json:"runs"`
}

// Text concatenates the paragraph's run texts.
func (p Paragraph) Text() string {
	if len(p.Runs) == 1 {
		return p.Runs[0].Text
	}
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Document is the result of extracting content from a file. It is not
// modified after Extract returns.
type Document struct {
	Path   string `json:"path"`
	Format Format `json:"format"`

	// Paragraphs holds body paragraphs in order (DOCX only).
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
	// Pages holds per-page text in page order (PDF only).
	Pages []string `json:"pages,omitempty"`

	// RawText is the flattened text: pages concatenated without separator
	// for PDF, paragraph texts joined by "\n" for DOCX.
	RawText string `json:"raw_text"`

	// Quality rates the extracted text (PDF only).
	Quality *Quality `json:"quality,omitempty"`
}

// ParagraphTexts returns the text of every paragraph, in order.
func (d *Document) ParagraphTexts() []string {
	out := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		out[i] = p.Text()
	}
	return out
}
