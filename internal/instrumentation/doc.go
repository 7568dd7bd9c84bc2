// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for drivefacade.
//
// # Metrics
//
// Google API metrics:
//   - google_api_operations_total: Drive operations by service, operation and status
//   - google_api_operation_duration_seconds: Drive operation durations
//
// Drive metrics:
//   - drive_batch_size: calls carried by one batch request
//   - drive_share_grants_total: permission grants by result
//   - drive_quota_available_bytes: bytes available at the last quota check
//
// MCP tool metrics:
//   - mcp_tool_invocations_total: tool invocations by tool, status and access mode
//   - mcp_tool_duration_seconds: tool execution durations
//
// With the Prometheus exporter the metrics are served by the metrics server
// on /metrics.
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and Drive calls
// (google.drive.<operation>).
//
// # Configuration
//
// DefaultConfig reads:
//   - OTEL_SDK_DISABLED: disable instrumentation (default: false)
//   - OTEL_METRICS_EXPORTER: prometheus, otlp, stdout or console (default: prometheus)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, console or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE: OTLP collector
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: drivefacade)
//   - DRIVEFACADE_METRICS_DETAILED_LABELS: grantee domain label on share metrics
//   - DRIVEFACADE_AUDIT_ENABLED, DRIVEFACADE_AUDIT_INCLUDE_PII: audit log switches
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	client := drive.NewClient(drive.Config{Metrics: provider.Metrics()})
package instrumentation
