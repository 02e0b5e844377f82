package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/deskgate/internal/dispatch"
	"github.com/teemow/deskgate/internal/google"
	"github.com/teemow/deskgate/internal/instrumentation"
	"github.com/teemow/deskgate/internal/logging"
	"github.com/teemow/deskgate/internal/server"
	"github.com/teemow/deskgate/internal/tools/calendar_tools"
	"github.com/teemow/deskgate/internal/tools/common"
	"github.com/teemow/deskgate/internal/tools/gmail_tools"
	"github.com/teemow/deskgate/internal/tools/google_tools"
)

// serveOptions collects the serve command's configuration after flags and
// environment fallbacks have been applied.
type serveOptions struct {
	transport      string
	httpAddr       string
	debug          bool
	yolo           bool
	clientID       string
	clientSecret   string
	tokenFile      string
	defaultLimit   int
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Gmail and
Google Calendar tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (sending email,
  creating events).

Google Credentials:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars.
  Tokens are stored at --token-file and refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeEnv(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (sending email, creating events). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.clientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.clientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.tokenFile, "token-file", "", "Path to the stored Google credential (default: user cache dir)")
	cmd.Flags().IntVar(&opts.defaultLimit, "default-limit", 10, "Default number of items listing tools return when no limit is given")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeEnv fills options from the environment when the corresponding
// flag was not set explicitly.
func applyServeEnv(cmd *cobra.Command, opts *serveOptions) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				opts.metricsEnabled = enabled
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metricsAddr = addr
		}
	}
	if !cmd.Flags().Changed("default-limit") {
		if v := os.Getenv("DEFAULT_LIMIT"); v != "" {
			if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
				opts.defaultLimit = limit
			}
		}
	}
	// Client ID, secret, and token file fall back via google.ConfigFromEnv.
}

func runServe(opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr; stdout belongs to the stdio transport.
	logger := logging.New(os.Stderr, opts.debug)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if !opts.metricsEnabled {
		instrConfig.Enabled = false
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	gconf := google.ConfigFromEnv(google.Config{
		ClientID:     opts.clientID,
		ClientSecret: opts.clientSecret,
		TokenFile:    opts.tokenFile,
	})
	store := google.NewStore(gconf.OAuthConfig(), gconf.TokenFile, logger)
	store.SetMetrics(provider.Metrics())

	serverContext := server.NewServerContext(shutdownCtx, store)
	defer serverContext.Shutdown()

	// The metrics server shares a port budget with nothing else; stdio
	// deployments skip it to keep the process single-socket.
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:          opts.metricsAddr,
			Provider:      provider,
			ServerContext: serverContext,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
		logger.Info("metrics server listening", slog.String("addr", metricsServer.Addr()))
	}

	mcpSrv := mcpserver.NewMCPServer("deskgate", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext, provider, logger, opts.defaultLimit, opts.yolo); err != nil {
		return err
	}

	if opts.yolo {
		logger.Info("write operations enabled (--yolo)")
	} else {
		logger.Info("running in read-only mode (use --yolo to enable write operations)")
	}

	switch opts.transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, opts.httpAddr, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

// registerAllTools builds the capability registry, wraps it in a dispatcher,
// and binds every tool to the MCP server. The credential store doubles as the
// dispatcher's credential source and the auth hinter for error messages.
func registerAllTools(mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, provider *instrumentation.Provider, logger *slog.Logger, defaultLimit int, yolo bool) error {
	defs := gmail_tools.Definitions(serverContext, defaultLimit, yolo)
	defs = append(defs, calendar_tools.Definitions(serverContext, defaultLimit, yolo)...)

	reg, err := dispatch.NewRegistry(defs...)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	store := serverContext.Store()
	dispatcher := dispatch.NewDispatcher(reg, store, logger)
	dispatcher.SetMetrics(provider.Metrics())
	dispatcher.SetAuditLogger(instrumentation.NewAuditLogger(logger))

	for _, def := range defs {
		mcpSrv.AddTool(common.BindTool(def), common.ToolHandler(dispatcher, def, store))
	}

	google_tools.Register(mcpSrv, store, provider.Metrics())
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr string, logger *slog.Logger) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	logger.Info("streamable HTTP server listening",
		slog.String("addr", addr),
		slog.String("endpoint", "/mcp"),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}
	return nil
}
