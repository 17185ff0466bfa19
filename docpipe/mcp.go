package docpipe

import (
	"context"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/redline/kit"
)

// InputSchema builds a JSON object schema for MCP tool arguments.
func InputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type pathReq struct {
	Path string `json:"path"`
}

type textResp struct {
	Path    string   `json:"path"`
	Format  Format   `json:"format"`
	Text    string   `json:"text"`
	Chars   int      `json:"chars"`
	Quality *Quality `json:"quality,omitempty"`
}

// RegisterMCP registers docpipe_extract, docpipe_text, docpipe_detect and
// docpipe_formats on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	pathSchema := func(desc string) map[string]any {
		return InputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": desc},
		}, []string{"path"})
	}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "docpipe_extract",
		Description: "Extract paragraphs with run formatting (docx) or per-page text (pdf) from a document file.",
		InputSchema: pathSchema("Document path"),
	}, func(ctx context.Context, req any) (any, error) {
		return p.Extract(ctx, req.(*pathReq).Path)
	}, kit.DecodeJSON[pathReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "docpipe_text",
		Description: "Return the flattened text the text comparator aligns, with a quality report for PDFs.",
		InputSchema: pathSchema("Document path"),
	}, func(ctx context.Context, req any) (any, error) {
		doc, err := p.Extract(ctx, req.(*pathReq).Path)
		if err != nil {
			return nil, err
		}
		return &textResp{
			Path:    doc.Path,
			Format:  doc.Format,
			Text:    doc.RawText,
			Chars:   utf8.RuneCountInString(doc.RawText),
			Quality: doc.Quality,
		}, nil
	}, kit.DecodeJSON[pathReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "docpipe_detect",
		Description: "Detect the format of a document file from its extension.",
		InputSchema: pathSchema("File path to detect"),
	}, func(_ context.Context, req any) (any, error) {
		format, err := p.Detect(req.(*pathReq).Path)
		if err != nil {
			return nil, err
		}
		resp := map[string]any{"format": format}
		if format == FormatPDF {
			resp["engine"] = p.cfg.PDFEngine
		}
		return resp, nil
	}, kit.DecodeJSON[pathReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "docpipe_formats",
		Description: "List supported document formats and the active PDF engine.",
		InputSchema: InputSchema(map[string]any{}, nil),
	}, func(context.Context, any) (any, error) {
		return map[string]any{
			"formats":    SupportedFormats(),
			"pdf_engine": p.cfg.PDFEngine,
		}, nil
	}, kit.DecodeJSON[struct{}]())
}
