package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sproutapp/sprout/internal/mcp"
	"github.com/sproutapp/sprout/internal/server"
	"github.com/sproutapp/sprout/internal/service"
)

const banner = `
 ___ ___ ___  ___  _   _ _____
/ __| _ \ _ \/ _ \| | | |_   _|
\__ \  _/   / (_) | |_| | | |
|___/_| |_|_\\___/ \___/  |_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Sprout HTTP server",
		Long: "Start the HTTP server that exposes account endpoints and the MCP " +
			"event-stream transport for AI agents.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("store opened", "dataDir", resolveDataDir())

	authSvc := service.NewAuthService(st, logger)
	mcpSrv := mcp.NewMCPServer(st, logger)

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		Version:         appVersion,
	}
	srv := server.New(srvCfg, st, authSvc, mcpSrv, logger)

	fmt.Printf("→ Sprout %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ Event stream: http://%s:%d/sse\n", host, port)
	fmt.Printf("→ OpenAPI:      http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:       http://%s:%d/health\n", host, port)
	fmt.Println()

	// The server closes the store during graceful shutdown.
	return srv.ListenAndServe()
}
