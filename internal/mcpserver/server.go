// Package mcpserver exposes the tool registry as a Model Context Protocol
// server.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/mikey/internal/tools"
)

// ServerName is the implementation name reported during initialization.
const ServerName = "mikey"

// New builds an MCP server with every tool in reg registered, in
// registration order.
func New(reg *tools.Registry, version string, logger log.Logger) *mcp.Server {
	if reg == nil {
		panic(xerrors.New("tool registry is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}

	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	for _, t := range reg.Tools() {
		server.AddTool(&mcp.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		}, handler(reg, t.Name(), logger))
	}
	return server
}

func handler(reg *tools.Registry, name string, logger log.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := reg.Call(ctx, name, req.Params.Arguments)
		if res.IsError {
			logger.Warn(ctx, "tool call failed", "tool", name, "result", res.Text())
		}
		return toMCP(res), nil
	}
}

func toMCP(res *tools.CallResult) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: res.IsError}
	for _, c := range res.Content {
		out.Content = append(out.Content, &mcp.TextContent{Text: c.Text})
	}
	return out
}

// Serve runs server over stdin/stdout until the client disconnects or ctx
// is cancelled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
