package drive_tools

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivefacade/internal/server"
)

// RegisterDriveTools registers the Drive tools with the MCP server. Write
// tools are skipped when the server context is read-only.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registerFileTools(s, sc)
	if !sc.ReadOnly() {
		registerWriteTools(s, sc)
		registerShareTools(s, sc)
	}
	return nil
}
