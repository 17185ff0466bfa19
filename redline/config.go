package redline

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/redline/docpipe"
)

// Config holds all redline configuration. The zero value is the behaviour of
// the bare CLI: output in the working directory, no history.
type Config struct {
	OutputDir        string  `yaml:"output_dir"`
	PDFEngine        string  `yaml:"pdf_engine"`
	NormalizeUnicode bool    `yaml:"normalize_unicode"`
	MaxFileSize      int64   `yaml:"max_file_size"`
	Palette          Palette `yaml:"palette"`
	HistoryDB        string  `yaml:"history_db"`
	LogLevel         string  `yaml:"log_level"`
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.PDFEngine == "" {
		c.PDFEngine = docpipe.EnginePDFCPU
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Palette.defaults()
}

var hexColor = regexp.MustCompile(`^[0-9A-F]{6}$`)

// highlightNames are the values WordprocessingML accepts for w:highlight.
var highlightNames = map[string]bool{
	"black": true, "blue": true, "cyan": true, "green": true, "magenta": true,
	"red": true, "yellow": true, "white": true, "darkBlue": true, "darkCyan": true,
	"darkGreen": true, "darkMagenta": true, "darkRed": true, "darkYellow": true,
	"darkGray": true, "lightGray": true,
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.PDFEngine {
	case docpipe.EnginePDFCPU, docpipe.EngineRSC:
	default:
		return fmt.Errorf("config: unknown pdf_engine %q", c.PDFEngine)
	}
	if !hexColor.MatchString(c.Palette.Insertion) {
		return fmt.Errorf("config: palette.insertion %q is not a hex RGB colour", c.Palette.Insertion)
	}
	if !hexColor.MatchString(c.Palette.Deletion) {
		return fmt.Errorf("config: palette.deletion %q is not a hex RGB colour", c.Palette.Deletion)
	}
	if !highlightNames[c.Palette.ChangeMarker] {
		return fmt.Errorf("config: palette.change_marker %q is not a highlight name", c.Palette.ChangeMarker)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) pipelineConfig(logger *slog.Logger) docpipe.Config {
	return docpipe.Config{
		MaxFileSize:      c.MaxFileSize,
		PDFEngine:        c.PDFEngine,
		NormalizeUnicode: c.NormalizeUnicode,
		Logger:           logger,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// LoadConfigFile reads a YAML config file. Defaults are applied by New.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
