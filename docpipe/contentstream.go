package docpipe

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// tjWordGap is the TJ displacement (thousandths of text space) beyond which a
// kerning adjustment is read as a word space.
const tjWordGap = -250

type csKind int

const (
	csString csKind = iota
	csNumber
	csName
	csOperator
	csArrayStart
	csArrayEnd
	csDelim
	csArray
)

type csToken struct {
	kind  csKind
	str   []byte
	num   float64
	op    string
	items []csToken
}

// textFromContentStream returns the text shown by the text operators of a
// page content stream (Tj, TJ, ', "). Line moves become "\n", horizontal
// moves and wide TJ gaps become a single space. String bytes are decoded as
// WinAnsi (Windows-1252), the encoding of standard simple fonts.
func textFromContentStream(data []byte) string {
	s := &csScanner{data: data}
	w := &textWriter{}
	var operands []csToken

	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		switch tok.kind {
		case csArrayStart:
			operands = append(operands, csToken{kind: csArray, items: s.array()})
		case csOperator:
			applyTextOperator(w, tok.op, operands)
			if tok.op == "ID" {
				s.skipInlineImage()
			}
			operands = operands[:0]
		default:
			operands = append(operands, tok)
		}
	}
	return w.String()
}

func applyTextOperator(w *textWriter, op string, operands []csToken) {
	last := func(kind csKind) (csToken, bool) {
		if len(operands) == 0 || operands[len(operands)-1].kind != kind {
			return csToken{}, false
		}
		return operands[len(operands)-1], true
	}

	switch op {
	case "Tj":
		if t, ok := last(csString); ok {
			w.text(t.str)
		}
	case "'", `"`:
		w.newline()
		if t, ok := last(csString); ok {
			w.text(t.str)
		}
	case "TJ":
		t, ok := last(csArray)
		if !ok {
			return
		}
		for _, it := range t.items {
			switch it.kind {
			case csString:
				w.text(it.str)
			case csNumber:
				if it.num < tjWordGap {
					w.space()
				}
			}
		}
	case "T*":
		w.newline()
	case "Td", "TD":
		if len(operands) >= 2 && operands[1].kind == csNumber && operands[1].num != 0 {
			w.newline()
		} else {
			w.space()
		}
	case "Tm":
		w.space()
	}
}

// textWriter collapses separator requests so no run of separators is emitted
// and nothing is emitted before the first text.
type textWriter struct {
	sb   strings.Builder
	last byte
}

func (w *textWriter) text(b []byte) {
	for _, c := range b {
		r := charmap.Windows1252.DecodeByte(c)
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if r == '\r' {
			r = '\n'
		}
		w.sb.WriteRune(r)
		if r < 0x80 {
			w.last = byte(r)
		} else {
			w.last = 'x'
		}
	}
}

func (w *textWriter) newline() {
	if w.sb.Len() == 0 || w.last == '\n' {
		return
	}
	w.sb.WriteByte('\n')
	w.last = '\n'
}

func (w *textWriter) space() {
	if w.sb.Len() == 0 || w.last == ' ' || w.last == '\n' {
		return
	}
	w.sb.WriteByte(' ')
	w.last = ' '
}

func (w *textWriter) String() string {
	return w.sb.String()
}

type csScanner struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *csScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *csScanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func (s *csScanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFSpace(s.data[s.pos]) && !isPDFDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *csScanner) next() (csToken, bool) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return csToken{}, false
	}
	c := s.data[s.pos]
	switch {
	case c == '(':
		return csToken{kind: csString, str: s.literal()}, true
	case c == '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return csToken{kind: csDelim}, true
		}
		return csToken{kind: csString, str: s.hex()}, true
	case c == '>':
		s.pos++
		if s.peek(0) == '>' {
			s.pos++
		}
		return csToken{kind: csDelim}, true
	case c == '[':
		s.pos++
		return csToken{kind: csArrayStart}, true
	case c == ']':
		s.pos++
		return csToken{kind: csArrayEnd}, true
	case c == '/':
		s.pos++
		return csToken{kind: csName, op: s.regular()}, true
	case c == '{' || c == '}' || c == ')':
		s.pos++
		return csToken{kind: csDelim}, true
	}

	word := s.regular()
	if word == "" {
		s.pos++
		return csToken{kind: csDelim}, true
	}
	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return csToken{kind: csNumber, num: f}, true
		}
	}
	return csToken{kind: csOperator, op: word}, true
}

// array reads tokens up to the matching ']'. Nested arrays are flattened.
func (s *csScanner) array() []csToken {
	var items []csToken
	for {
		tok, ok := s.next()
		if !ok || tok.kind == csArrayEnd {
			return items
		}
		if tok.kind == csArrayStart {
			items = append(items, s.array()...)
			continue
		}
		items = append(items, tok)
	}
}

// literal decodes a (...) string, handling nesting and escape sequences.
func (s *csScanner) literal() []byte {
	s.pos++ // (
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return out
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
				// Line continuation.
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && s.peek(0) >= '0' && s.peek(0) <= '7'; i++ {
						val = val*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex decodes a <...> string; an odd final digit is padded with 0.
func (s *csScanner) hex() []byte {
	s.pos++ // <
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		c := s.data[s.pos]
		s.pos++
		if _, ok := hexVal(c); ok {
			digits = append(digits, c)
		}
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, _ := hexVal(digits[i])
		lo, _ := hexVal(digits[i+1])
		out = append(out, hi<<4|lo)
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage moves past binary inline image data up to the EI operator.
func (s *csScanner) skipInlineImage() {
	if s.pos < len(s.data) && isPDFSpace(s.data[s.pos]) {
		s.pos++
	}
	for {
		i := bytes.Index(s.data[s.pos:], []byte("EI"))
		if i < 0 {
			s.pos = len(s.data)
			return
		}
		at := s.pos + i
		before := at == 0 || isPDFSpace(s.data[at-1])
		after := at+2 >= len(s.data) || isPDFSpace(s.data[at+2])
		s.pos = at + 2
		if before && after {
			return
		}
	}
}
