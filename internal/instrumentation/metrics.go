package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/teemow/drivefacade/internal/logging"
)

// Metric attribute keys
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrReadOnly  = "read_only"
	attrDomain    = "user_domain"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Drive batch metrics
	batchSize         metric.Int64Histogram
	shareGrantsTotal  metric.Int64Counter
	quotaAvailableObs metric.Int64Gauge

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the grantee domain to share metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments registered on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.batchSize, err = meter.Int64Histogram(
		"drive_batch_size",
		metric.WithDescription("Number of calls sent in one Drive batch request"),
		metric.WithUnit("{call}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_batch_size histogram: %w", err)
	}

	m.shareGrantsTotal, err = meter.Int64Counter(
		"drive_share_grants_total",
		metric.WithDescription("Total number of permission grants by result"),
		metric.WithUnit("{grant}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_share_grants_total counter: %w", err)
	}

	m.quotaAvailableObs, err = meter.Int64Gauge(
		"drive_quota_available_bytes",
		metric.WithDescription("Storage bytes available at the last quota check"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_quota_available_bytes gauge: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordGoogleAPIOperation records a Google API operation with service,
// operation, status and duration.
//
// Parameters:
//   - service: Google service name (drive)
//   - operation: Client operation (quota, search, list, share, ...)
//   - status: "success" or "error"
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBatchSize records how many calls one batch request carried.
func (m *Metrics) RecordBatchSize(ctx context.Context, operation string, size int) {
	if m == nil || m.batchSize == nil {
		return
	}
	m.batchSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String(attrOperation, operation)))
}

// RecordShareGrant records the outcome of one permission grant. The grantee
// domain is attached only with detailed labels enabled.
func (m *Metrics) RecordShareGrant(ctx context.Context, email, status string) {
	if m == nil || m.shareGrantsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrDomain, domainLabel(email)))
	}

	m.shareGrantsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordQuotaAvailable records the bytes available reported by a quota check.
func (m *Metrics) RecordQuotaAvailable(ctx context.Context, available int64) {
	if m == nil || m.quotaAvailableObs == nil {
		return
	}
	m.quotaAvailableObs.Record(ctx, available)
}

// RecordToolInvocation records an MCP tool invocation with tool name,
// status, access mode and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, readOnly bool, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
		attribute.Bool(attrReadOnly, readOnly),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// domainLabel bounds the grantee label to the email domain.
func domainLabel(email string) string {
	if domain := logging.ExtractDomain(email); domain != "" {
		return domain
	}
	return "unknown"
}
