package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/instrumentation"
	"github.com/teemow/drivefacade/internal/logging"
	"github.com/teemow/drivefacade/internal/server"
	"github.com/teemow/drivefacade/internal/tools/drive_tools"
)

// metricsStartupTimeout bounds how long serve waits for the metrics listener.
const metricsStartupTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		yolo        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server on stdio to provide Google
Drive tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode, providing only quota,
  search, list and download. Use --yolo to enable delete, upload and share.

Observability:
  Metrics and traces are configured with the standard OTEL_* environment
  variables. With the prometheus exporter, --metrics-addr serves /metrics
  and the /healthz and /readyz probes on a dedicated port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("yolo") {
				yolo = opts.cfg.Server.Yolo
			}
			if !cmd.Flags().Changed("metrics-addr") && opts.cfg.Server.MetricsAddr != "" {
				metricsAddr = opts.cfg.Server.MetricsAddr
			}
			return runServe(cmd.Context(), opts, !yolo, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (delete, upload, share). Default is read-only mode.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics and health server address (e.g. :9090). Disabled when empty.")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, readOnly bool, metricsAddr string) error {
	rt, err := startServe(ctx, opts, readOnly, metricsAddr)
	if err != nil {
		return err
	}
	defer rt.close()

	if readOnly {
		opts.logger.Info("starting MCP server in read-only mode (use --yolo to enable write operations)")
	} else {
		opts.logger.Info("starting MCP server with write operations enabled")
	}
	return runStdioServer(rt.mcp)
}

// serveRuntime holds everything serve runs besides the stdio transport.
type serveRuntime struct {
	mcp           *mcpserver.MCPServer
	serverContext *server.ServerContext
	metricsServer *server.MetricsServer
	closers       []func()
}

// close releases the runtime in reverse order of construction.
func (rt *serveRuntime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// startServe builds the instrumentation, the session, the optional metrics
// server and the MCP server. The session is initialized eagerly; a failure
// is logged and the next tool call retries.
func startServe(ctx context.Context, opts *rootOptions, readOnly bool, metricsAddr string) (_ *serveRuntime, err error) {
	logger := opts.logger
	rt := &serveRuntime{}
	defer func() {
		if err != nil {
			rt.close()
		}
	}()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	rt.closers = append(rt.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	})

	var metrics *instrumentation.Metrics
	var audit *instrumentation.AuditLogger
	if provider.Enabled() {
		metrics = provider.Metrics()
		audit = instrumentation.NewAuditLogger(logger, instrConfig.Audit)
	}

	dc := opts.cfg.DriveConfig()
	dc.HTTPClient = opts.httpClient
	dc.Logger = logging.NewSlogAdapter(logger)
	dc.Metrics = metrics
	client := drive.NewClient(dc)

	rt.serverContext = server.NewServerContext(ctx, client, server.Options{
		ReadOnly:        readOnly,
		AllowLocalPaths: opts.cfg.Server.AllowLocalPaths,
		Metrics:         metrics,
		Audit:           audit,
		Logger:          logger,
	})
	rt.closers = append(rt.closers, rt.serverContext.Shutdown)

	if metricsAddr != "" {
		rt.metricsServer, err = startMetricsServer(provider, rt.serverContext, metricsAddr, logger)
		if err != nil {
			return nil, err
		}
		metricsServer := rt.metricsServer
		rt.closers = append(rt.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		})
	}

	// /readyz reports ready once this succeeds.
	if err := rt.serverContext.Init(ctx); err != nil {
		logger.Info("drive session not ready, the first tool call retries", logging.Err(err))
	}

	rt.mcp = newMCPServer()
	if err := drive_tools.RegisterDriveTools(rt.mcp, rt.serverContext); err != nil {
		return nil, fmt.Errorf("failed to register Drive tools: %w", err)
	}
	return rt, nil
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("drivefacade", version,
		mcpserver.WithToolCapabilities(true),
	)
}

// startMetricsServer starts the metrics server in the background and waits
// until it listens or fails.
func startMetricsServer(provider *instrumentation.Provider, sc *server.ServerContext, addr string, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  server.NewHealthChecker(sc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
