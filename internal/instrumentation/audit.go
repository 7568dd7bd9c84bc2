package instrumentation

import (
	"context"
	"log/slog"
	"time"


	"github.com/teemow/drivefacade/internal/logging"
)

// ToolInvocation captures one MCP tool call for the audit log.
//
// Recipients holds the grantee addresses of a share call and is PII. The
// audit logger hashes them unless IncludePII is set.
type ToolInvocation struct {
	Tool       string
	Operation  string
	ReadOnly   bool
	FileID     string
	Recipients []string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a ToolInvocation with timing started.
func NewToolInvocation(tool, operation string, readOnly bool) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		Operation: operation,
		ReadOnly:  readOnly,
		StartTime: time.Now(),
	}
}

// WithFile sets the target file.
func (ti *ToolInvocation) WithFile(fileID string) *ToolInvocation {
	ti.FileID = fileID
	return ti
}

// WithRecipients sets the grantees of a share call.
func (ti *ToolInvocation) WithRecipients(emails []string) *ToolInvocation {
	ti.Recipients = emails
	return ti
}

// WithSpanContext copies the trace context of the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID, ti.SpanID = SpanIDs(ctx)
	return ti
}

// Complete stops the clock and records the outcome.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error".
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the audit attributes, with recipients in clear when
// includePII is set and hashed otherwise.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.Operation(ti.Operation),
		slog.Bool("read_only", ti.ReadOnly),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.FileID != "" {
		attrs = append(attrs, logging.FileID(ti.FileID))
	}
	if len(ti.Recipients) > 0 {
		recipients := make([]string, len(ti.Recipients))
		for i, email := range ti.Recipients {
			if includePII {
				recipients[i] = email
			} else {
				recipients[i] = logging.AnonymizeEmail(email)
			}
		}
		attrs = append(attrs, slog.Any("recipients", recipients))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// AuditLogger writes one record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger means slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at Info on success and Warn on failure.
// Nil receivers and disabled loggers drop the record.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
