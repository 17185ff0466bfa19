package redline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/redline/docpipe"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()

	if cfg.OutputDir != "." || cfg.PDFEngine != docpipe.EnginePDFCPU || cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Palette != DefaultPalette() {
		t.Errorf("palette = %+v", cfg.Palette)
	}
	if cfg.HistoryDB != "" {
		t.Errorf("history should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redline.yaml")
	os.WriteFile(path, []byte(`
output_dir: out
pdf_engine: rsc
normalize_unicode: true
max_file_size: 1024
history_db: history.db
log_level: debug
palette:
  insertion: "#00aa00"
  change_marker: cyan
`), 0o644)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.defaults()
	if cfg.OutputDir != "out" || cfg.PDFEngine != docpipe.EngineRSC || !cfg.NormalizeUnicode ||
		cfg.MaxFileSize != 1024 || cfg.HistoryDB != "history.db" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	// Partial palettes keep the remaining defaults; '#' and case are normalized.
	want := Palette{Insertion: "00AA00", Deletion: "FF0000", ChangeMarker: "cyan"}
	if cfg.Palette != want {
		t.Errorf("palette = %+v, want %+v", cfg.Palette, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("output_dir: [unclosed"), 0o644)
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("expected parse error naming the file, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"engine", Config{PDFEngine: "magic"}, "pdf_engine"},
		{"insertion", Config{Palette: Palette{Insertion: "blue"}}, "palette.insertion"},
		{"deletion", Config{Palette: Palette{Deletion: "FF00"}}, "palette.deletion"},
		{"marker", Config{Palette: Palette{ChangeMarker: "orange"}}, "palette.change_marker"},
		{"level", Config{LogLevel: "loud"}, "log level"},
	}
	for _, tt := range tests {
		_, err := New(tt.cfg, nil)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want mention of %q", tt.name, err, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
