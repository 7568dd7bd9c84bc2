// Package drive_tools provides MCP (Model Context Protocol) tools for Google Drive operations.
//
// This package exposes the Drive facade to MCP clients (like AI assistants)
// through a small set of tools. Read tools are always registered; write
// tools only when the server runs with write operations enabled.
//
// Read tools:
//   - drive_quota: Report the storage quota and bytes available
//   - drive_search_files: Find files whose name contains a string
//   - drive_list_files: List the first files of the drive
//   - drive_download_file: Download file content
//
// Write tools:
//   - drive_delete_file: Permanently delete one or more files
//   - drive_upload_file: Upload content or a local file
//   - drive_share_file: Grant users access to a file in one batch request
//
// Example tool usage:
//
//	drive_share_file({
//	  fileId: "1a2b3c",
//	  emails: ["alice@example.com", "bob@example.com"]
//	})
package drive_tools
