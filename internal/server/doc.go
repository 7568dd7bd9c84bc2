// Package server holds the state shared by the MCP tool handlers and the
// HTTP side endpoints of the serve command.
//
// ServerContext owns the Drive session. The drive.Client is not reentrant,
// so every tool call runs through ServerContext.Do, which serializes
// operations and initializes the session on first use.
//
// MetricsServer exposes /metrics for Prometheus scraping together with the
// /healthz and /readyz probes on a dedicated port.
package server
