// CLAUDE:SUMMARY Registers the coordinator's MCP tools: get, analyze, clear the stored submission and list recent events.
package background

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/codecapture/kit"
)

// RegisterMCP registers the coordinator's tools on an MCP server.
func (c *Coordinator) RegisterMCP(srv *mcp.Server) {
	c.registerGetTool(srv)
	c.registerAnalyzeTool(srv)
	c.registerClearTool(srv)
	c.registerEventsTool(srv)
}

// mcpEndpoint applies the middleware shared by every tool.
func (c *Coordinator) mcpEndpoint(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(c.logger, name))(e)
}

type noArgs struct{}

func (c *Coordinator) registerGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "codecapture_get_submission",
		Description: "Return the most recently captured submission: problem title, description, examples, code and judged outcome.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return c.Get(ctx)
	}
	kit.RegisterMCPTool(srv, tool, c.mcpEndpoint(tool.Name, endpoint), kit.DecodeArgs[noArgs])
}

type analyzeArgs struct {
	Code string `json:"code,omitempty"`
}

func (c *Coordinator) registerAnalyzeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "codecapture_analyze",
		Description: "Request a code review of the captured submission. Pass code to review a different solution against the same problem.",
		InputSchema: kit.InputSchema(map[string]any{
			"code": map[string]any{"type": "string", "description": "Code to review instead of the captured code"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(analyzeArgs)
		if r.Code == "" {
			return c.AnalyzeStored(ctx)
		}
		got, err := c.Get(ctx)
		if err != nil {
			return nil, err
		}
		if got.ProblemInfo == nil {
			return nil, ErrNoCode
		}
		return c.Analyze(ctx, r.Code, *got.ProblemInfo), nil
	}
	kit.RegisterMCPTool(srv, tool, c.mcpEndpoint(tool.Name, endpoint), kit.DecodeArgs[analyzeArgs])
}

func (c *Coordinator) registerClearTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "codecapture_clear",
		Description: "Delete the stored submission.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return c.Clear(ctx)
	}
	kit.RegisterMCPTool(srv, tool, c.mcpEndpoint(tool.Name, endpoint), kit.DecodeArgs[noArgs])
}

type eventsArgs struct {
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (c *Coordinator) registerEventsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "codecapture_events",
		Description: "List recent coordinator events (snapshot_saved, review_requested, store_cleared), newest first.",
		InputSchema: kit.InputSchema(map[string]any{
			"type":  map[string]any{"type": "string", "enum": []any{"snapshot_saved", "review_requested", "store_cleared"}},
			"limit": map[string]any{"type": "integer", "description": "Max events (default 50)"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(eventsArgs)
		return c.events.Recent(ctx, r.Type, r.Limit)
	}
	kit.RegisterMCPTool(srv, tool, c.mcpEndpoint(tool.Name, endpoint), kit.DecodeArgs[eventsArgs])
}
