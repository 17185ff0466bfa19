// CLAUDE:SUMMARY Configuration struct and defaults for the docpipe document extraction pipeline.
package docpipe

import "log/slog"

// PDF text engines.
const (
	EnginePDFCPU = "pdfcpu"
	EngineRSC    = "rsc"
)

// Config configures the document pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// PDFEngine selects the PDF text extractor: "pdfcpu" (default) or "rsc".
	PDFEngine string `json:"pdf_engine" yaml:"pdf_engine"`

	// NormalizeUnicode applies NFC normalization to all extracted text, so
	// composed and decomposed accents compare equal.
	NormalizeUnicode bool `json:"normalize_unicode" yaml:"normalize_unicode"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.PDFEngine == "" {
		c.PDFEngine = EnginePDFCPU
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
