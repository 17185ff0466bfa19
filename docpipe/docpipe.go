// CLAUDE:SUMMARY Core pipeline engine that dispatches document extraction by format (docx, pdf).
// Package docpipe extracts comparable content from document files.
//
// Supported formats:
//   - .docx: Microsoft Word (archive/zip → word/document.xml), paragraphs with run formatting
//   - .pdf: PDF text, one string per page (pdfcpu or rsc.io/pdf engine)
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.Extract(ctx, "/path/to/file.docx")
//	fmt.Println(len(doc.Paragraphs), "paragraphs")
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the document format based on file extension (case-insensitive).
func (p *Pipeline) Detect(path string) (Format, error) {
	return DetectFormat(path)
}

// DetectFormat is Detect without a pipeline.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".docx":
		return FormatDocx, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", ext)
	}
}

// Extract parses a document. DOCX yields paragraphs and their runs, PDF yields
// per-page text; both fill RawText.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "path", path, "format", format)

	doc := &Document{Path: path, Format: format}
	switch format {
	case FormatDocx:
		doc.Paragraphs, err = extractDocx(path)
	case FormatPDF:
		doc.Pages, err = p.extractPDF(path)
	default:
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", path, format, err)
	}

	if p.cfg.NormalizeUnicode {
		normalize(doc)
	}

	switch format {
	case FormatDocx:
		doc.RawText = strings.Join(doc.ParagraphTexts(), "\n")
	case FormatPDF:
		doc.RawText = strings.Join(doc.Pages, "")
		doc.Quality = assessPages(doc.Pages)
	}

	p.logger.Debug("document extracted", "path", path,
		"paragraphs", len(doc.Paragraphs), "pages", len(doc.Pages), "chars", len(doc.RawText))
	return doc, nil
}

// Text returns the flattened text of a document.
func (p *Pipeline) Text(ctx context.Context, path string) (string, error) {
	doc, err := p.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	return doc.RawText, nil
}

func (p *Pipeline) extractPDF(path string) ([]string, error) {
	switch p.cfg.PDFEngine {
	case EnginePDFCPU:
		return extractPDF(path)
	case EngineRSC:
		return extractPDFRSC(path)
	default:
		return nil, fmt.Errorf("unknown pdf engine: %q", p.cfg.PDFEngine)
	}
}

func normalize(doc *Document) {
	for i := range doc.Pages {
		doc.Pages[i] = norm.NFC.String(doc.Pages[i])
	}
	for i := range doc.Paragraphs {
		runs := doc.Paragraphs[i].Runs
		for j := range runs {
			runs[j].Text = norm.NFC.String(runs[j].Text)
		}
	}
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{string(FormatDocx), string(FormatPDF)}
}
