package docpipe

import (
	"fmt"
	"math"
	"os"
	"strings"

	"rsc.io/pdf"
)

// extractPDFRSC is the rsc.io/pdf engine. It decodes glyphs through the
// fonts' encodings and rebuilds lines from glyph positions.
func extractPDFRSC(path string) (pages []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// rsc.io/pdf panics on malformed objects instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("rsc.io/pdf: panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("rsc.io/pdf read: %w", err)
	}

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, glyphText(page.Content().Text))
	}
	return pages, nil
}

// glyphText joins positioned glyphs: a baseline change starts a new line, a
// horizontal gap wider than a fifth of the font size becomes a space.
func glyphText(glyphs []pdf.Text) string {
	var sb strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = 1
			}
			switch {
			case math.Abs(g.Y-prev.Y) > size/2:
				sb.WriteByte('\n')
			case g.X-(prev.X+prev.W) > size/5:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return strings.TrimSpace(sb.String())
}
