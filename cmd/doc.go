// Package cmd implements the command-line interface for drivefacade.
//
// This package provides the following commands:
//   - quota: Print the storage still available
//   - search: Find files whose name contains a string
//   - list: List the first files of the drive
//   - download: Write the content of a file to stdout or a local path
//   - delete: Permanently delete files
//   - upload: Upload a local file or stdin
//   - share: Grant users access to a file in one batch request
//   - serve: Start the MCP server to provide Drive tools for AI assistants
//   - generate-docs: Generate markdown documentation for the MCP tools
//   - version: Display version information
//
// Every command reads the TOML config file first; see the --config flag.
package cmd
