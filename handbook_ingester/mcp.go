package handbook_ingester

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/siddu015/Camply/handbook_reader"
	"github.com/siddu015/Camply/handbook_store"
	"github.com/siddu015/Camply/kit"
)

// RegisterMCP registers the handbook query tools on an MCP server. These are
// the surface a conversational layer uses to answer questions from processed
// handbooks.
func (g *Ingester) RegisterMCP(srv *mcp.Server) {
	g.registerSectionTool(srv)
	g.registerSearchTool(srv)
	g.registerStatusTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- section ---

type sectionReq struct {
	HandbookID string `json:"handbook_id"`
	Category   string `json:"category"`
}

func (g *Ingester) registerSectionTool(srv *mcp.Server) {
	categories := make([]string, len(handbook_reader.Categories))
	for i, c := range handbook_reader.Categories {
		categories[i] = string(c)
	}

	tool := &mcp.Tool{
		Name:        "handbook_section",
		Description: "Get one knowledge section of a processed handbook (summary, key points, full content).",
		InputSchema: inputSchema(map[string]any{
			"handbook_id": map[string]any{"type": "string", "description": "Handbook identifier"},
			"category":    map[string]any{"type": "string", "enum": categories},
		}, []string{"handbook_id", "category"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sectionReq)
		category, ok := handbook_reader.ParseCategory(r.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", r.Category)
		}
		if err := g.requireCompleted(r.HandbookID); err != nil {
			return nil, err
		}
		section, err := g.store.GetSection(r.HandbookID, category)
		if err != nil {
			return nil, err
		}
		if section == nil {
			return nil, ErrHandbookNotFound
		}
		return section, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r sectionReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- search ---

type searchReq struct {
	HandbookID string `json:"handbook_id"`
	Query      string `json:"query"`
	Limit      int    `json:"limit,omitempty"`
}

func (g *Ingester) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "handbook_search",
		Description: "Search the sections of a processed handbook and return ranked matches.",
		InputSchema: inputSchema(map[string]any{
			"handbook_id": map[string]any{"type": "string", "description": "Handbook identifier"},
			"query":       map[string]any{"type": "string", "description": "Free-text query"},
			"limit":       map[string]any{"type": "integer", "description": "Maximum results (default 5)"},
		}, []string{"handbook_id", "query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		if err := g.requireCompleted(r.HandbookID); err != nil {
			return nil, err
		}
		limit := r.Limit
		if limit <= 0 {
			limit = 5
		}
		results, err := g.store.Search(r.HandbookID, r.Query, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": results, "count": len(results)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r searchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- status ---

type statusReq struct {
	HandbookID string `json:"handbook_id"`
}

func (g *Ingester) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "handbook_status",
		Description: "Check the processing status of an uploaded handbook.",
		InputSchema: inputSchema(map[string]any{
			"handbook_id": map[string]any{"type": "string", "description": "Handbook identifier"},
		}, []string{"handbook_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*statusReq)
		return g.PollStatus(ctx, r.HandbookID)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r statusReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// requireCompleted gates query tools on the state machine: sections exist
// only after a run completes.
func (g *Ingester) requireCompleted(handbookID string) error {
	h, err := g.store.GetHandbook(handbookID)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrHandbookNotFound
	}
	if h.ProcessingStatus != handbook_store.StatusCompleted {
		return fmt.Errorf("handbook %s is %s, not completed", handbookID, h.ProcessingStatus)
	}
	return nil
}
