package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/server"
	"github.com/teemow/drivefacade/internal/tools/batch"
	"github.com/teemow/drivefacade/internal/tools/common"
)

// registerShareTools registers the sharing tool
func registerShareTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	shareTool := mcp.NewTool("drive_share_file",
		mcp.WithDescription("Grant users access to a file in Google Drive. All grants are sent in a single batch request; the result lists the outcome per recipient."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file to share"),
		),
		mcp.WithString("emails",
			mcp.Required(),
			mcp.Description("Email address (string) or array of email addresses to grant access to"),
		),
	)
	s.AddTool(shareTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_share_file", Operation: "share"}, sc, handleShareFile(sc)))
}

func handleShareFile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileID, err := common.RequiredString(request, "fileId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		emails, err := batch.ParseStringOrArray(request.GetArguments()["emails"], "emails")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(emails) > drive.MaxBatchSize {
			return mcp.NewToolResultError("too many recipients for one batch request"), nil
		}

		var result *drive.ShareResult
		err = sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			result, err = client.ShareFile(ctx, fileID, emails)
			return err
		})
		if err != nil {
			return common.ErrorResult("share file", err), nil
		}
		return mcp.NewToolResultText(batch.FormatResults(batch.FromShareResult(result))), nil
	}
}
