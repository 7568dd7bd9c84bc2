package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/instrumentation"
)

// Options configures a ServerContext.
type Options struct {
	// ReadOnly hides the write tools (delete, upload, share)
	ReadOnly bool

	// AllowLocalPaths permits uploads that read a path on the server host
	AllowLocalPaths bool

	// Metrics records tool metrics; optional
	Metrics *instrumentation.Metrics

	// Audit records one entry per tool call; optional
	Audit *instrumentation.AuditLogger

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// ServerContext holds the context for the MCP server.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *drive.Client
	opts   Options

	// opMu serializes Drive operations
	opMu sync.Mutex

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context around client. The client may
// be uninitialized; Do initializes it on first use.
func NewServerContext(ctx context.Context, client *drive.Client, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		client: client,
		opts:   opts,
	}
}

// Context returns the server context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Do runs fn with exclusive use of the Drive client, initializing the
// session first when needed.
func (sc *ServerContext) Do(ctx context.Context, fn func(ctx context.Context, client *drive.Client) error) error {
	sc.opMu.Lock()
	defer sc.opMu.Unlock()

	if err := sc.ensureInit(ctx); err != nil {
		return err
	}
	return fn(ctx, sc.client)
}

// Init initializes the Drive session now rather than on the first tool call.
func (sc *ServerContext) Init(ctx context.Context) error {
	sc.opMu.Lock()
	defer sc.opMu.Unlock()
	return sc.ensureInit(ctx)
}

func (sc *ServerContext) ensureInit(ctx context.Context) error {
	if sc.client.Initialized() {
		return nil
	}
	if err := sc.client.Init(ctx); err != nil {
		sc.opts.Logger.Warn("drive session initialization failed", "error", err)
		return err
	}
	return nil
}

// Ready reports whether the Drive session is initialized and the server is
// not shutting down.
func (sc *ServerContext) Ready() bool {
	return !sc.IsShutdown() && sc.client.Initialized()
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.opts.ReadOnly
}

// AllowLocalPaths reports whether tools may read files from the server host.
func (sc *ServerContext) AllowLocalPaths() bool {
	return sc.opts.AllowLocalPaths
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// Audit returns the audit logger, or nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.opts.Audit
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}
