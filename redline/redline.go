// Package redline compares two documents and writes the differences as a
// redlined .docx: deletions in red, insertions in blue, whitespace-only
// changes highlighted.
//
// Two pipelines exist. PDF inputs (and DOCX with ForceText) are flattened to
// text and aligned character by character. DOCX inputs are aligned paragraph
// by paragraph and keep their run formatting.
//
// Usage:
//
//	cmp, err := redline.New(redline.Config{}, logger)
//	res, err := cmp.Compare(ctx, "v1.docx", "v2.docx", redline.Options{})
//	fmt.Println(res.OutputPath)
package redline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/redline/diff"
	"github.com/hazyhaar/redline/docpipe"
	"github.com/hazyhaar/redline/idgen"
	"github.com/hazyhaar/redline/kit"
	"github.com/hazyhaar/redline/ooxml"
)

var (
	ErrNotFound          = errors.New("file not found")
	ErrExtensionMismatch = errors.New("files must have the same extension")
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrExtraction        = errors.New("extraction failed")
)

// IsValidation reports whether err was raised by Validate.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExtensionMismatch) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// idPrefix marks comparison ids.
const idPrefix = "cmp_"

// Comparison modes.
const (
	ModeText      = "text"
	ModeParagraph = "paragraph"
)

// PDFWarning is surfaced whenever PDFs are compared.
const PDFWarning = "PDF comparison is text only: formatting is not preserved"

// Stats counts alignment opcodes by kind. Whitespace counts the replace
// opcodes rendered as whitespace-only changes.
type Stats struct {
	Equal      int `json:"equal"`
	Insert     int `json:"insert"`
	Delete     int `json:"delete"`
	Replace    int `json:"replace"`
	Whitespace int `json:"whitespace"`
}

func (s *Stats) count(tag diff.Tag) {
	switch tag {
	case diff.Equal:
		s.Equal++
	case diff.Insert:
		s.Insert++
	case diff.Delete:
		s.Delete++
	case diff.Replace:
		s.Replace++
	}
}

// Changed reports whether any non-equal opcode was seen.
func (s Stats) Changed() bool {
	return s.Insert+s.Delete+s.Replace > 0
}

// Result describes one finished comparison.
type Result struct {
	ID         string   `json:"id"`
	Mode       string   `json:"mode"`
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	OutputPath string   `json:"output_path"`
	Stats      Stats    `json:"stats"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Options tune a single Compare call.
type Options struct {
	// Output overrides the output path. Empty means
	// <output_dir>/result_<a>_vs_<b>.docx.
	Output string
	// ForceText runs DOCX inputs through the text pipeline.
	ForceText bool
}

// Comparator runs comparisons with a fixed configuration.
type Comparator struct {
	cfg     Config
	pipe    *docpipe.Pipeline
	history *History
	newID   idgen.Generator
	logger  *slog.Logger
}

// New creates a Comparator. The history store is opened when cfg.HistoryDB
// is set.
func New(cfg Config, logger *slog.Logger) (*Comparator, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Comparator{
		cfg:    cfg,
		pipe:   docpipe.New(cfg.pipelineConfig(logger)),
		newID:  idgen.Prefixed(idPrefix, idgen.Default),
		logger: logger,
	}
	if cfg.HistoryDB != "" {
		h, err := OpenHistory(cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		c.history = h
	}
	return c, nil
}

// Close releases the history store, if any.
func (c *Comparator) Close() error {
	if c.history != nil {
		return c.history.Close()
	}
	return nil
}

// Config returns the effective configuration.
func (c *Comparator) Config() Config { return c.cfg }

// Pipeline returns the extraction pipeline.
func (c *Comparator) Pipeline() *docpipe.Pipeline { return c.pipe }

// History returns the history store, or nil when disabled.
func (c *Comparator) History() *History { return c.history }

// Validate checks a file pair before any extraction: both exist, share an
// extension (case-insensitive), and that extension is supported.
func Validate(source, target string) (docpipe.Format, error) {
	for _, p := range []string{source, target} {
		if err := checkExists(p); err != nil {
			return "", err
		}
	}
	ext1, ext2 := filepath.Ext(source), filepath.Ext(target)
	if !strings.EqualFold(ext1, ext2) {
		return "", fmt.Errorf("%w: '%s' and '%s'", ErrExtensionMismatch, ext1, ext2)
	}
	format, err := docpipe.DetectFormat(source)
	if err != nil {
		return "", fmt.Errorf("%w '%s': use .docx or .pdf", ErrUnsupportedFormat, ext1)
	}
	return format, nil
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: can't find '%s'", ErrNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: '%s' is a directory", ErrNotFound, path)
	}
	return nil
}

// CheckExists is the existence half of Validate, for callers reading paths
// one at a time.
func CheckExists(path string) error {
	return checkExists(path)
}

// OutputName returns result_<stem1>_vs_<stem2>.docx, where a stem is the
// base name without its last extension.
func OutputName(source, target string) string {
	return fmt.Sprintf("result_%s_vs_%s.docx", stem(source), stem(target))
}

func stem(path string) string {
	base := filepath.Base(path)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// Compare validates the pair, picks the pipeline from the format and writes
// the redline.
func (c *Comparator) Compare(ctx context.Context, source, target string, opts Options) (*Result, error) {
	format, err := Validate(source, target)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == "" {
		out = filepath.Join(c.cfg.OutputDir, OutputName(source, target))
	}

	var res *Result
	if format == docpipe.FormatDocx && !opts.ForceText {
		res, err = c.CompareParagraphs(ctx, source, target, out)
	} else {
		res, err = c.CompareText(ctx, source, target, out)
	}
	if err != nil {
		return nil, err
	}
	if format == docpipe.FormatPDF {
		res.Warnings = append(res.Warnings, PDFWarning)
	}

	if c.history != nil {
		if err := c.history.Record(ctx, res); err != nil {
			c.logger.Warn("record history", "id", res.ID, "error", err)
		}
	}
	return res, nil
}

// CompareText runs the character-level pipeline on any supported pair.
func (c *Comparator) CompareText(ctx context.Context, source, target, output string) (*Result, error) {
	a, err := c.extract(ctx, source)
	if err != nil {
		return nil, err
	}
	b, err := c.extract(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, st := RenderText(a.RawText, b.RawText, c.cfg.Palette)
	res, err := c.save(ctx, doc, ModeText, source, target, output, st)
	if err != nil {
		return nil, err
	}
	for _, d := range []*docpipe.Document{a, b} {
		if d.Quality.NeedsOCR() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("'%s' has little or no extractable text (scanned PDF?)", d.Path))
		}
	}
	return res, nil
}

// CompareParagraphs runs the paragraph-level pipeline on two DOCX files.
func (c *Comparator) CompareParagraphs(ctx context.Context, source, target, output string) (*Result, error) {
	a, err := c.extract(ctx, source)
	if err != nil {
		return nil, err
	}
	b, err := c.extract(ctx, target)
	if err != nil {
		return nil, err
	}
	if a.Format != docpipe.FormatDocx || b.Format != docpipe.FormatDocx {
		return nil, fmt.Errorf("%w: paragraph mode needs two .docx files", ErrUnsupportedFormat)
	}
	doc, st := RenderParagraphs(a, b, c.cfg.Palette)
	return c.save(ctx, doc, ModeParagraph, source, target, output, st)
}

func (c *Comparator) extract(ctx context.Context, path string) (*docpipe.Document, error) {
	doc, err := c.pipe.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return doc, nil
}

func (c *Comparator) save(ctx context.Context, doc *ooxml.Document, mode, source, target, output string, st Stats) (*Result, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output %s: %w", output, err)
	}
	if err := doc.Save(abs); err != nil {
		return nil, fmt.Errorf("save %s: %w", abs, err)
	}

	res := &Result{
		ID:         c.newID(),
		Mode:       mode,
		Source:     source,
		Target:     target,
		OutputPath: abs,
		Stats:      st,
	}
	c.logger.Info("comparison saved",
		"id", res.ID,
		"request_id", kit.GetRequestID(ctx),
		"transport", kit.GetTransport(ctx),
		"session", kit.GetSessionID(ctx),
		"mode", mode,
		"output", abs,
		"insert", st.Insert,
		"delete", st.Delete,
		"replace", st.Replace,
		"whitespace", st.Whitespace,
	)
	return res, nil
}
