package docpipe

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// writeDocx writes a minimal .docx whose body is the given WordprocessingML.
func writeDocx(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
	fw, _ := w.Create("[Content_Types].xml")
	fw.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	fw, _ = w.Create("word/document.xml")
	fw.Write([]byte(docXML))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestDetect(t *testing.T) {
	pipe := New(Config{})

	tests := []struct {
		path   string
		format Format
	}{
		{"doc.docx", FormatDocx},
		{"doc.DOCX", FormatDocx},
		{"doc.pdf", FormatPDF},
		{"dir.v2/Doc.Pdf", FormatPDF},
	}

	for _, tt := range tests {
		f, err := pipe.Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.path, err)
			continue
		}
		if f != tt.format {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, f, tt.format)
		}
	}

	for _, bad := range []string{"file.xyz", "file.doc", "file.txt", "noext"} {
		if _, err := pipe.Detect(bad); err == nil {
			t.Errorf("expected error for unsupported format %q", bad)
		}
	}
}

func TestExtractDocx_ParagraphsAndText(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "test.docx", `
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">Split </w:t></w:r><w:r><w:t>across runs</w:t></w:r></w:p>`)

	pipe := New(Config{})
	doc, err := pipe.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Format != FormatDocx {
		t.Fatalf("format = %s", doc.Format)
	}
	got := doc.ParagraphTexts()
	want := []string{"First paragraph.", "", "Split across runs"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("paragraphs = %q, want %q", got, want)
	}
	if doc.RawText != "First paragraph.\n\nSplit across runs" {
		t.Fatalf("raw text = %q", doc.RawText)
	}
	if len(doc.Paragraphs[1].Runs) != 0 || doc.Paragraphs[1].Runs == nil {
		t.Fatalf("empty paragraph should have an empty, non-nil run list")
	}
}

func TestExtractDocx_RunFormatting(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "fmt.docx", `
<w:p>
  <w:pPr><w:jc w:val="center"/></w:pPr>
  <w:r>
    <w:rPr>
      <w:rFonts w:ascii="Arial" w:hAnsi="Arial"/>
      <w:b/><w:i w:val="0"/><w:u w:val="double"/>
      <w:color w:val="00ff00"/><w:sz w:val="28"/>
    </w:rPr>
    <w:t>styled</w:t>
  </w:r>
  <w:r><w:rPr><w:color w:val="auto"/><w:u/></w:rPr><w:t>plain</w:t></w:r>
</w:p>`)

	paras, err := extractDocx(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	p := paras[0]
	if p.Alignment != "center" {
		t.Errorf("alignment = %q", p.Alignment)
	}
	if len(p.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(p.Runs))
	}

	r := p.Runs[0]
	if r.Bold == nil || !*r.Bold {
		t.Error("run 0 should be bold")
	}
	if r.Italic == nil || *r.Italic {
		t.Error("run 0 should be explicitly not italic")
	}
	if r.Underline != "double" || r.FontName != "Arial" || r.FontSize != 28 || r.Color != "00FF00" {
		t.Errorf("run 0 = %+v", r)
	}

	r = p.Runs[1]
	if r.Bold != nil || r.Italic != nil {
		t.Error("run 1 should inherit bold/italic")
	}
	if r.Color != "" {
		t.Errorf("auto color should be dropped, got %q", r.Color)
	}
	if r.Underline != "single" {
		t.Errorf("bare w:u should be single, got %q", r.Underline)
	}
}

func TestExtractDocx_TabsBreaksHyperlinks(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "mixed.docx", `
<w:p>
  <w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t><w:br w:type="page"/></w:r>
  <w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink>
</w:p>`)

	paras, err := extractDocx(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := paras[0].Text(); got != "a\tb\nclink" {
		t.Fatalf("text = %q", got)
	}
	if len(paras[0].Runs) != 2 {
		t.Fatalf("hyperlink run should be kept, got %d runs", len(paras[0].Runs))
	}
}

func TestExtractDocx_SkipsTablesAndTextBoxes(t *testing.T) {
	// WHAT: only body-level paragraphs are loaded.
	// WHY: table structure is out of scope, and text box paragraphs live
	// inside runs of another paragraph.
	dir := t.TempDir()
	path := writeDocx(t, dir, "nested.docx", `
<w:p><w:r><w:t>before</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>host</w:t><w:drawing><w:txbxContent><w:p><w:r><w:t>boxed</w:t></w:r></w:p></w:txbxContent></w:drawing></w:r></w:p>
<w:p><w:r><w:t>after</w:t></w:r></w:p>`)

	paras, err := extractDocx(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range paras {
		got = append(got, p.Text())
	}
	if strings.Join(got, "|") != "before|host|after" {
		t.Fatalf("paragraphs = %q", got)
	}
}

func TestExtractDocx_NotAZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	os.WriteFile(path, []byte("not a zip"), 0644)

	pipe := New(Config{})
	_, err := pipe.Extract(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for corrupt docx")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path: %v", err)
	}
}

func TestExtractDocx_MissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, _ := os.Create(path)
	w := zip.NewWriter(f)
	fw, _ := w.Create("other.xml")
	fw.Write([]byte("<x/>"))
	w.Close()
	f.Close()

	if _, err := extractDocx(path); err == nil || !strings.Contains(err.Error(), "word/document.xml") {
		t.Fatalf("expected missing document.xml error, got %v", err)
	}
}

func TestDOCX_XMLBomb(t *testing.T) {
	// WHAT: DOCX with deeply nested XML returns depth error.
	// WHY: XML bomb / billion laughs defense.
	var xmlB strings.Builder
	for i := 0; i < 300; i++ {
		xmlB.WriteString("<w:p>")
	}
	xmlB.WriteString("<w:r><w:t>deep</w:t></w:r>")
	for i := 0; i < 300; i++ {
		xmlB.WriteString("</w:p>")
	}
	path := writeDocx(t, t.TempDir(), "bomb.docx", xmlB.String())

	_, err := extractDocx(path)
	if err == nil {
		t.Fatal("expected error for deeply nested XML")
	}
	if !strings.Contains(err.Error(), "nesting depth") {
		t.Errorf("expected 'nesting depth' error, got: %v", err)
	}
}

func TestExtract_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "big.docx", `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)

	pipe := New(Config{MaxFileSize: 10})
	if _, err := pipe.Extract(context.Background(), path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestExtract_NormalizeUnicode(t *testing.T) {
	// WHAT: a decomposed accent (e + U+0301) comes back composed with NormalizeUnicode.
	// WHY: two documents typed on different systems must compare equal.
	dir := t.TempDir()
	path := writeDocx(t, dir, "nfc.docx", "<w:p><w:r><w:t>cafe\u0301</w:t></w:r></w:p>")

	raw, err := New(Config{}).Text(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if raw != "cafe\u0301" {
		t.Fatalf("without normalization text should be untouched, got %q", raw)
	}

	norm, err := New(Config{NormalizeUnicode: true}).Text(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if norm != "caf\u00e9" {
		t.Fatalf("expected NFC text, got %q", norm)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Config{}).Extract(ctx, "whatever.docx"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSupportedFormats(t *testing.T) {
	got := SupportedFormats()
	if len(got) != 2 || got[0] != "docx" || got[1] != "pdf" {
		t.Fatalf("SupportedFormats() = %v", got)
	}
}
