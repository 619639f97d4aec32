package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	smcp "github.com/sproutapp/sprout/internal/mcp"
	"github.com/sproutapp/sprout/internal/service"
)

func newMCPCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Long: `Start a Model Context Protocol (MCP) server that exposes your plants
as tools for AI agents like Claude. The server communicates over stdin/stdout
using JSON-RPC, suitable for direct integration with Claude Desktop or other
MCP clients.

Stdio mode is bound to a single identity: the API key passed via --api-key,
SPROUT_AUTH_API_KEY, or auth.api_key in sprout.yaml. For multi-user access
over HTTP, run 'sprout serve' and connect to /sse instead.`,
		Example: `  sprout mcp --api-key sprout_...   # for Claude Desktop
  SPROUT_AUTH_API_KEY=sprout_... sprout mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(apiKey)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key identifying the plant owner (default: auth.api_key config)")

	return cmd
}

func runMCP(apiKey string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if apiKey == "" {
		apiKey = viper.GetString("auth.api_key")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key configured; pass --api-key or set SPROUT_AUTH_API_KEY")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	authSvc := service.NewAuthService(st, logger)
	user, err := authSvc.Resolve(context.Background(), apiKey)
	if err != nil {
		return fmt.Errorf("resolve api key: %w", err)
	}

	mcpSrv := smcp.NewMCPServer(st, logger)
	return mcpSrv.ServeStdio(user)
}
