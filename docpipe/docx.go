package docpipe

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hazyhaar/redline/horosafe"
)

// extractDocx loads the body paragraphs of a .docx file, keeping run-level
// formatting. Paragraphs nested in tables or text boxes are not body
// paragraphs and are skipped.
func extractDocx(path string) ([]Paragraph, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return parseDocumentXML(horosafe.LimitReader(rc, maxDocumentXML))
}

// maxDocumentXML bounds the inflated size of word/document.xml.
const maxDocumentXML = 256 << 20

// maxXMLDepth bounds element nesting in document.xml.
const maxXMLDepth = 256

// docxParser walks document.xml tokens keeping a stack of element names.
// Depths are stack lengths at the moment an element opened.
type docxParser struct {
	stack  []string
	paras  []Paragraph
	cur    *Paragraph
	pDepth int
	run    *Run
	rDepth int
	text   strings.Builder
	inText bool
}

func parseDocumentXML(r io.Reader) ([]Paragraph, error) {
	p := &docxParser{}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(p.stack) >= maxXMLDepth {
				return nil, fmt.Errorf("parse document.xml: nesting depth exceeds %d", maxXMLDepth)
			}
			p.start(t)
		case xml.EndElement:
			p.end()
		case xml.CharData:
			if p.inText {
				p.text.Write(t)
			}
		}
	}
	if p.paras == nil {
		p.paras = []Paragraph{}
	}
	return p.paras, nil
}

func (p *docxParser) parent(up int) string {
	i := len(p.stack) - up
	if i < 0 {
		return ""
	}
	return p.stack[i]
}

func (p *docxParser) start(t xml.StartElement) {
	name := t.Name.Local
	depth := len(p.stack)
	parent := p.parent(1)

	switch {
	case p.cur == nil:
		if name == "p" && parent == "body" {
			p.cur = &Paragraph{Runs: []Run{}}
			p.pDepth = depth
		}
	case p.run == nil:
		switch {
		case name == "jc" && parent == "pPr" && depth == p.pDepth+2:
			p.cur.Alignment = attr(t, "val")
		case name == "r" && (depth == p.pDepth+1 || (depth == p.pDepth+2 && parent == "hyperlink")):
			p.run = &Run{}
			p.rDepth = depth
			p.text.Reset()
		}
	case depth == p.rDepth+2 && parent == "rPr":
		p.runProperty(name, t)
	case depth == p.rDepth+1:
		switch name {
		case "t":
			p.inText = true
		case "tab", "ptab":
			p.text.WriteByte('\t')
		case "br", "cr":
			if typ := attr(t, "type"); typ == "" || typ == "textWrapping" {
				p.text.WriteByte('\n')
			}
		case "noBreakHyphen":
			p.text.WriteByte('-')
		}
	}

	p.stack = append(p.stack, name)
}

func (p *docxParser) end() {
	if len(p.stack) == 0 {
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
	depth := len(p.stack)

	switch {
	case p.inText && depth == p.rDepth+1:
		p.inText = false
	case p.run != nil && depth == p.rDepth:
		p.run.Text = p.text.String()
		p.cur.Runs = append(p.cur.Runs, *p.run)
		p.run = nil
	case p.cur != nil && p.run == nil && depth == p.pDepth:
		p.paras = append(p.paras, *p.cur)
		p.cur = nil
	}
}

func (p *docxParser) runProperty(name string, t xml.StartElement) {
	switch name {
	case "b":
		p.run.Bold = toggle(t)
	case "i":
		p.run.Italic = toggle(t)
	case "u":
		v := attr(t, "val")
		if v == "" {
			v = "single"
		}
		p.run.Underline = v
	case "rFonts":
		if v := attr(t, "ascii"); v != "" {
			p.run.FontName = v
		} else {
			p.run.FontName = attr(t, "hAnsi")
		}
	case "sz":
		if n, err := strconv.Atoi(attr(t, "val")); err == nil && n > 0 {
			p.run.FontSize = n
		}
	case "color":
		if v := attr(t, "val"); v != "" && !strings.EqualFold(v, "auto") {
			p.run.Color = strings.ToUpper(v)
		}
	}
}

// toggle reads an OOXML on/off property: a bare element means on.
func toggle(t xml.StartElement) *bool {
	v := true
	switch strings.ToLower(attr(t, "val")) {
	case "0", "false", "off":
		v = false
	}
	return &v
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
