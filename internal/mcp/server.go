package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
	"github.com/sproutapp/sprout/internal/store"
)

// MCPServer wraps the mcp-go server with the plant-care tool catalogue.
// Every tool is scoped to the identity carried on the request context; the
// transport adapter supplies it, never the tool arguments.
type MCPServer struct {
	store  *store.Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all tools. The
// returned server is ready to serve over stdio or the SSE adapter.
func NewMCPServer(st *store.Store, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:  st,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"Sprout Plant Care",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, bound to the single
// identity configured for the process. This is the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio(user *model.User) error {
	s.logger.Info("starting MCP server in stdio mode", "user", user.ID)
	return server.ServeStdio(s.server, server.WithStdioContextFunc(
		func(ctx context.Context) context.Context {
			return service.WithIdentity(ctx, user)
		},
	))
}

// HandleMessage feeds one raw JSON-RPC message to the server and returns
// its response, or nil for notifications. The SSE adapter uses this to
// share the tool catalogue with the stdio transport.
func (s *MCPServer) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.server.HandleMessage(ctx, raw)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
