package drive_tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/server"
	"github.com/teemow/drivefacade/internal/tools/batch"
	"github.com/teemow/drivefacade/internal/tools/common"
)

// maxListResults caps drive_list_files.
const maxListResults = 1000

// quotaResponse is the payload of drive_quota.
type quotaResponse struct {
	drive.QuotaInfo
	Available *int64 `json:"available,omitempty"` // unset for unlimited quotas
	Summary   string `json:"summary"`
}

// filesResponse is the payload of the search and list tools.
type filesResponse struct {
	Files []drive.RemoteFile `json:"files"`
	Count int                `json:"count"`
}

// downloadResponse is the payload of drive_download_file.
type downloadResponse struct {
	FileID   string `json:"fileId"`
	Size     int64  `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// registerFileTools registers the read-only tools
func registerFileTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	quotaTool := mcp.NewTool("drive_quota",
		mcp.WithDescription("Report the Google Drive storage quota and the number of bytes still available"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(quotaTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_quota", Operation: "quota", ReadOnly: true}, sc, handleQuota(sc)))

	searchTool := mcp.NewTool("drive_search_files",
		mcp.WithDescription("Find files in Google Drive whose name contains the given text, following every result page"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Text the file name must contain"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_search_files", Operation: "search", ReadOnly: true}, sc, handleSearchFiles(sc)))

	listTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List the first files of Google Drive"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of files to return (default: %d, max: %d)", drive.ShowFilesPageSize, maxListResults)),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_list_files", Operation: "list", ReadOnly: true}, sc, handleListFiles(sc)))

	downloadTool := mcp.NewTool("drive_download_file",
		mcp.WithDescription("Download the content of a file from Google Drive"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithBoolean("asText",
			mcp.Description("Return the content as plain text instead of base64 (default: false)"),
		),
	)
	s.AddTool(downloadTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_download_file", Operation: "download", ReadOnly: true}, sc, handleDownloadFile(sc)))
}

func handleQuota(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var quota *drive.QuotaInfo
		err := sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			quota, err = client.Quota(ctx)
			return err
		})
		if err != nil {
			return common.ErrorResult("get quota", err), nil
		}
		resp := quotaResponse{QuotaInfo: *quota, Summary: quota.String()}
		if !quota.Unlimited {
			available := quota.Available()
			resp.Available = &available
		}
		return common.JSONResult(resp)
	}
}

func handleSearchFiles(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := common.RequiredString(request, "name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var files []drive.RemoteFile
		err = sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			files, err = client.SearchFiles(ctx, name)
			return err
		})
		if err != nil {
			return common.ErrorResult("search files", err), nil
		}
		return common.JSONResult(newFilesResponse(files))
	}
}

func handleListFiles(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := int64(drive.ShowFilesPageSize)
		if maxResults, ok := request.GetArguments()["maxResults"].(float64); ok && maxResults > 0 {
			n = int64(maxResults)
		}
		if n > maxListResults {
			n = maxListResults
		}

		var files []drive.RemoteFile
		err := sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			files, err = client.ListFiles(ctx, n)
			return err
		})
		if err != nil {
			return common.ErrorResult("list files", err), nil
		}
		return common.JSONResult(newFilesResponse(files))
	}
}

func handleDownloadFile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileID, err := common.RequiredString(request, "fileId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		asText, _ := request.GetArguments()["asText"].(bool)

		var buf bytes.Buffer
		var n int64
		err = sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			n, err = client.DownloadFile(ctx, fileID, &buf)
			return err
		})
		if err != nil {
			return common.ErrorResult("download file", err), nil
		}

		resp := downloadResponse{FileID: fileID, Size: n}
		if asText {
			resp.Encoding = "text"
			resp.Content = buf.String()
		} else {
			resp.Encoding = "base64"
			resp.Content = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
		return common.JSONResult(resp)
	}
}

// registerWriteTools registers the delete and upload tools
func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	deleteTool := mcp.NewTool("drive_delete_file",
		mcp.WithDescription("Permanently delete one or more files from Google Drive. Files are not moved to the trash."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("fileIds",
			mcp.Required(),
			mcp.Description("File ID (string) or array of file IDs to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_delete_file", Operation: "delete"}, sc, handleDeleteFile(sc)))

	uploadTool := mcp.NewTool("drive_upload_file",
		mcp.WithDescription("Upload a file to Google Drive, from inline content or a local path"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The name of the new file"),
		),
		mcp.WithString("content",
			mcp.Description("The file content (base64-encoded unless isBase64 is false)"),
		),
		mcp.WithBoolean("isBase64",
			mcp.Description("Whether the content is base64-encoded (default: true)"),
		),
		mcp.WithString("path",
			mcp.Description("Path of a file on the server host to upload instead of content. Rejected unless the server sets server.allow_local_paths"),
		),
	)
	s.AddTool(uploadTool, common.InstrumentedToolHandler(
		common.ToolSpec{Name: "drive_upload_file", Operation: "upload"}, sc, handleUploadFile(sc)))
}

func handleDeleteFile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileIDs, err := batch.ParseStringOrArray(request.GetArguments()["fileIds"], "fileIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var results []batch.Result
		err = sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			results = batch.ProcessBatch(fileIDs, func(fileID string) (string, error) {
				if err := client.DeleteFile(ctx, fileID); err != nil {
					return "", err
				}
				return fmt.Sprintf("File %s deleted", fileID), nil
			})
			return nil
		})
		if err != nil {
			return common.ErrorResult("delete files", err), nil
		}
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleUploadFile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		name, err := common.RequiredString(request, "name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, _ := args["path"].(string)
		content, hasContent := args["content"].(string)
		if path == "" && !hasContent {
			return mcp.NewToolResultError("either content or path is required"), nil
		}
		if path != "" && hasContent {
			return mcp.NewToolResultError("content and path are mutually exclusive"), nil
		}
		if path != "" && !sc.AllowLocalPaths() {
			return mcp.NewToolResultError("uploading from a local path is disabled (set server.allow_local_paths)"), nil
		}

		var data []byte
		if hasContent {
			isBase64 := true
			if v, ok := args["isBase64"].(bool); ok {
				isBase64 = v
			}
			if isBase64 {
				data, err = base64.StdEncoding.DecodeString(content)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("Failed to decode base64 content: %v", err)), nil
				}
			} else {
				data = []byte(content)
			}
		}

		var file *drive.RemoteFile
		err = sc.Do(ctx, func(ctx context.Context, client *drive.Client) error {
			var err error
			if path != "" {
				file, err = client.CreateFile(ctx, path, name)
			} else {
				file, err = client.StoreFile(ctx, data, name)
			}
			return err
		})
		if err != nil {
			return common.ErrorResult("upload file", err), nil
		}
		return common.JSONResult(file)
	}
}

func newFilesResponse(files []drive.RemoteFile) filesResponse {
	if files == nil {
		files = []drive.RemoteFile{}
	}
	return filesResponse{Files: files, Count: len(files)}
}
