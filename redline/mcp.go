package redline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/redline/docpipe"
	"github.com/hazyhaar/redline/horosafe"
	"github.com/hazyhaar/redline/idgen"
	"github.com/hazyhaar/redline/kit"
)

// RegisterMCP registers the compare and history tools, plus the docpipe
// extraction tools, on an MCP server.
func (c *Comparator) RegisterMCP(srv *mcp.Server) {
	c.pipe.RegisterMCP(srv)
	c.registerCompareTool(srv)
	if c.history != nil {
		c.registerHistoryTool(srv)
	}
}

// --- compare ---

type compareReq struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Output   string `json:"output"`
	TextMode bool   `json:"text_mode"`
}

func (c *Comparator) registerCompareTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "redline_compare",
		Description: "Compare two .docx or two .pdf files and write a redlined .docx (deletions red, insertions blue, whitespace changes highlighted).",
		InputSchema: docpipe.InputSchema(map[string]any{
			"source":    map[string]any{"type": "string", "description": "Original document path"},
			"target":    map[string]any{"type": "string", "description": "Revised document path"},
			"output":    map[string]any{"type": "string", "description": "Output file name, relative to the output directory"},
			"text_mode": map[string]any{"type": "boolean", "description": "Compare .docx files as flat text"},
		}, []string{"source", "target"}),
	}

	endpoint := kit.Chain(kit.WithRequestIDs(idgen.Prefixed("req_", idgen.Default)))(
		func(ctx context.Context, req any) (any, error) {
			r := req.(*compareReq)
			out, err := c.confineOutput(r.Output)
			if err != nil {
				return nil, err
			}
			return c.Compare(ctx, r.Source, r.Target, Options{Output: out, ForceText: r.TextMode})
		})

	kit.RegisterMCPTool(srv, tool, endpoint, kit.DecodeJSON[compareReq]())
}

// confineOutput resolves a caller-supplied output name inside OutputDir.
// Empty stays empty so Compare picks the default name.
func (c *Comparator) confineOutput(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return "", fmt.Errorf("output %q must end in .docx", name)
	}
	return horosafe.SafePath(c.cfg.OutputDir, name)
}

// --- history ---

type historyReq struct {
	ID    string `json:"id"`
	Limit int    `json:"limit"`
}

func (c *Comparator) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "redline_history",
		Description: "List recent comparisons, or fetch one by id.",
		InputSchema: docpipe.InputSchema(map[string]any{
			"id":    map[string]any{"type": "string", "description": "Comparison id (cmp_...)"},
			"limit": map[string]any{"type": "integer", "description": "Max records (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*historyReq)
		if r.ID != "" {
			return c.history.Get(ctx, r.ID)
		}
		recs, err := c.history.Recent(ctx, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"comparisons": recs, "count": len(recs)}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, kit.DecodeJSON[historyReq]())
}
