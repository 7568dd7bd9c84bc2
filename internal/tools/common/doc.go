// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrapper and result helpers used by every tool.
package common
