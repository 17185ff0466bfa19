// Command redline compares two .docx or two .pdf files and writes a redlined
// .docx: deletions in red, insertions in blue, whitespace-only changes
// highlighted.
//
// Usage:
//
//	redline                                   # prompt for two files
//	redline compare old.docx new.docx         # no prompts
//	redline compare -text old.docx new.docx   # compare .docx as flat text
//	redline serve -addr :8080                 # HTTP API
//	redline mcp                               # MCP server on stdio
//	redline mcp -quic :4443 -cert c.pem -key k.pem   # MCP over QUIC
//	redline history -limit 20                 # recorded comparisons (needs history_db)
//
// Every subcommand takes -config redline.yaml and -log-level.
package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/redline/docpipe"
	"github.com/hazyhaar/redline/mcpquic"
	"github.com/hazyhaar/redline/redline"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "err: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	textMode   bool
	output     string
	addr       string
	limit      int
	quicAddr   string
	certFile   string
	keyFile    string
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := "compare"
	if len(args) > 0 {
		switch args[0] {
		case "compare", "serve", "mcp", "history":
			cmd, args = args[0], args[1:]
		case "help", "-h", "-help", "--help":
			fmt.Fprintln(stdout, "usage: redline [compare|serve|mcp|history] [-config file] [flags] [file1 file2]")
			return nil
		}
	}

	var opts options
	fs := flag.NewFlagSet("redline "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to redline.yaml config file")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	switch cmd {
	case "compare":
		fs.BoolVar(&opts.textMode, "text", false, "compare .docx files as flat text")
		fs.StringVar(&opts.output, "o", "", "output path (default <output_dir>/result_<a>_vs_<b>.docx)")
	case "serve":
		fs.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	case "mcp":
		fs.StringVar(&opts.quicAddr, "quic", "", "serve MCP over QUIC on this UDP address instead of stdio")
		fs.StringVar(&opts.certFile, "cert", "", "TLS certificate (PEM) for -quic; self-signed when empty")
		fs.StringVar(&opts.keyFile, "key", "", "TLS private key (PEM) for -quic")
	case "history":
		fs.IntVar(&opts.limit, "limit", 20, "max records")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	level, err := redline.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	c, err := redline.New(*cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer c.Close()

	switch cmd {
	case "serve":
		return serve(ctx, c, opts.addr, logger)
	case "mcp":
		return serveMCP(ctx, c, opts, logger)
	case "history":
		return history(ctx, c, opts.limit, stdout)
	default:
		return compare(ctx, c, fs.Args(), opts, stdin, stdout)
	}
}

func resolveConfig(opts options) (*redline.Config, error) {
	cfg := &redline.Config{}
	if opts.configPath != "" {
		var err error
		if cfg, err = redline.LoadConfigFile(opts.configPath); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func compare(ctx context.Context, c *redline.Comparator, paths []string, opts options, stdin io.Reader, stdout io.Writer) error {
	var source, target string
	switch len(paths) {
	case 2:
		source, target = paths[0], paths[1]
	case 0:
		fmt.Fprintln(stdout, "--- redline: document compare ---")
		in := bufio.NewReader(stdin)
		var err error
		if source, err = prompt(in, stdout, "file 1: "); err != nil {
			return err
		}
		if target, err = prompt(in, stdout, "file 2: "); err != nil {
			return err
		}
	default:
		return fmt.Errorf("compare takes two files, got %d", len(paths))
	}

	format, err := redline.Validate(source, target)
	if err != nil {
		return err
	}
	if format == docpipe.FormatPDF {
		color.New(color.FgYellow).Fprintf(stdout, "\nwarn: %s; the output is .docx.\n", redline.PDFWarning)
	}
	if format == docpipe.FormatDocx && !opts.textMode {
		fmt.Fprintln(stdout, "comparing paragraphs...")
	} else {
		fmt.Fprintln(stdout, "comparing text...")
	}

	res, err := c.Compare(ctx, source, target, redline.Options{Output: opts.output, ForceText: opts.textMode})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\ndone! saved to '%s'\n", res.OutputPath)
	printSummary(stdout, res)
	for _, warn := range res.Warnings {
		if warn != redline.PDFWarning {
			color.New(color.FgYellow).Fprintf(stdout, "warn: %s\n", warn)
		}
	}
	return nil
}

// prompt reads one path and checks it exists before the next prompt.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s%w", label, err)
	}
	path := strings.Trim(strings.TrimSpace(line), `"'`)
	if err := redline.CheckExists(path); err != nil {
		return "", err
	}
	return path, nil
}

func printSummary(w io.Writer, res *redline.Result) {
	st := res.Stats
	if !st.Changed() {
		fmt.Fprintf(w, "%s mode: no differences\n", res.Mode)
		return
	}
	ins := color.New(color.FgBlue, color.Bold)
	del := color.New(color.FgRed, color.Bold)
	ws := color.New(color.FgYellow)
	fmt.Fprintf(w, "%s mode: %s insertions, %s deletions, %s replacements (%s whitespace only)\n",
		res.Mode, ins.Sprint(st.Insert), del.Sprint(st.Delete), del.Sprint(st.Replace), ws.Sprint(st.Whitespace))
}

func history(ctx context.Context, c *redline.Comparator, limit int, stdout io.Writer) error {
	h := c.History()
	if h == nil {
		return errors.New("history is disabled: set history_db in the config file")
	}
	recs, err := h.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if recs == nil {
		recs = []*redline.Record{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func serve(ctx context.Context, c *redline.Comparator, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func serveMCP(ctx context.Context, c *redline.Comparator, opts options, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "redline", Version: version}, nil)
	c.RegisterMCP(srv)
	if opts.quicAddr != "" {
		return serveMCPQUIC(ctx, srv, opts, logger)
	}
	logger.Info("mcp server starting", "transport", "stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func serveMCPQUIC(ctx context.Context, srv *mcp.Server, opts options, logger *slog.Logger) error {
	var (
		tlsCfg *tls.Config
		err    error
	)
	switch {
	case opts.certFile != "" && opts.keyFile != "":
		tlsCfg, err = mcpquic.LoadTLSConfig(opts.certFile, opts.keyFile)
	case opts.certFile != "" || opts.keyFile != "":
		return errors.New("-cert and -key must be given together")
	default:
		logger.Warn("no certificate given, using a self-signed one")
		tlsCfg, err = mcpquic.SelfSignedTLSConfig()
	}
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}

	l, err := mcpquic.Listen(opts.quicAddr, tlsCfg, srv, logger)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer l.Close()
	if err := l.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp quic: %w", err)
	}
	return nil
}
