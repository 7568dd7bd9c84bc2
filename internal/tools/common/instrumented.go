package common

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/drivefacade/internal/instrumentation"
	"github.com/teemow/drivefacade/internal/server"
	"github.com/teemow/drivefacade/internal/tools/batch"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolSpec describes the tool being instrumented.
type ToolSpec struct {
	// Name is the MCP tool name
	Name string

	// Operation is the Drive operation the tool performs
	Operation string

	// ReadOnly is set for tools that never modify Drive
	ReadOnly bool
}

// InstrumentedToolHandler wraps a tool handler with a tool span, tool
// metrics and an audit record. Metrics and audit are skipped when the
// server context carries none.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler(common.ToolSpec{Name: "drive_quota", Operation: "quota", ReadOnly: true}, sc, handler))
func InstrumentedToolHandler(spec ToolSpec, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, spec.Name,
			attribute.Bool(instrumentation.SpanAttrReadOnly, spec.ReadOnly))

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(spec.Name, spec.Operation, spec.ReadOnly).
			WithSpanContext(ctx)
		args := request.GetArguments()
		if fileID := targetFile(args); fileID != "" {
			invocation.WithFile(fileID)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrFileID, fileID))
		}
		if emails, err := batch.ParseStringOrArray(args["emails"], "emails"); err == nil {
			invocation.WithRecipients(emails)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		callErr := err
		if callErr == nil && result != nil && result.IsError {
			callErr = toolError(result)
		}
		invocation.Complete(callErr)
		instrumentation.EndSpan(span, callErr)

		sc.Metrics().RecordToolInvocation(ctx, spec.Name, invocation.Status(), spec.ReadOnly, duration)
		sc.Audit().LogToolInvocation(invocation)

		return result, err
	}
}

// targetFile returns the file a tool call acts on, from either the fileId
// or the fileIds argument.
func targetFile(args map[string]interface{}) string {
	if fileID, ok := args["fileId"].(string); ok && fileID != "" {
		return fileID
	}
	if ids, err := batch.ParseStringOrArray(args["fileIds"], "fileIds"); err == nil {
		return strings.Join(ids, ",")
	}
	return ""
}
