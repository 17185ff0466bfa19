package docpipe

import (
	"unicode"
	"unicode/utf8"
)

// Quality summarizes how much usable text a PDF yielded. Scanned PDFs have
// no text layer, and fonts without a ToUnicode map extract as garbage; both
// make a text comparison meaningless.
type Quality struct {
	PageCount      int     `json:"page_count"`
	EmptyPages     int     `json:"empty_pages"`
	CharsPerPage   float64 `json:"chars_per_page"`
	PrintableRatio float64 `json:"printable_ratio"`
}

// NeedsOCR reports whether the text is unusable: every page empty, or
// mostly unprintable characters.
func (q *Quality) NeedsOCR() bool {
	if q == nil || q.PageCount == 0 {
		return false
	}
	return q.EmptyPages == q.PageCount || q.PrintableRatio < 0.85
}

func assessPages(pages []string) *Quality {
	q := &Quality{PageCount: len(pages), PrintableRatio: 1}
	chars := 0
	var all []byte
	for _, p := range pages {
		if p == "" {
			q.EmptyPages++
		}
		chars += utf8.RuneCountInString(p)
		all = append(all, p...)
	}
	if q.PageCount > 0 {
		q.CharsPerPage = float64(chars) / float64(q.PageCount)
	}
	q.PrintableRatio = printableRatio(string(all))
	return q
}

// printableRatio is the share of printable runes in text. Private use
// code points, U+FFFD and control characters other than whitespace count
// as garbage.
func printableRatio(text string) float64 {
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == utf8.RuneError:
		return true
	case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}
