package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/drivefacade/internal/drive"
)

// JSONResult renders v as indented JSON text.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ErrorResult reports a failed Drive operation as a tool error. Argument
// errors are returned verbatim; everything else is prefixed with action.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, drive.ErrInvalidArgument) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// RequiredString returns the non-empty string argument name.
func RequiredString(request mcp.CallToolRequest, name string) (string, error) {
	value, ok := request.GetArguments()[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return value, nil
}

// toolError extracts the message of an error result.
func toolError(result *mcp.CallToolResult) error {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return errors.New(text.Text)
		}
	}
	return errors.New("tool returned an error")
}
