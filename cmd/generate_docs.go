package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/server"
	"github.com/teemow/drivefacade/internal/tools/drive_tools"
)

const (
	categoryRead  = "Read Tools"
	categoryWrite = "Write Tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for every MCP tool the server can register,
including the write tools enabled by --yolo. The documentation is built from
the tool definitions themselves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputFile == "" {
				return writeToolDocs(cmd.OutOrStdout())
			}
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			if err := writeToolDocs(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// writeToolDocs registers every tool on a throwaway server and renders them.
func writeToolDocs(w io.Writer) error {
	// registration needs no credentials, so the client is never initialized
	sc := server.NewServerContext(context.Background(), drive.NewClient(drive.Config{}), server.Options{})
	defer sc.Shutdown()

	mcpSrv := newMCPServer()
	if err := drive_tools.RegisterDriveTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Drive tools: %w", err)
	}

	var tools []mcp.Tool
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	_, err := io.WriteString(w, renderToolDocs(tools))
	return err
}

func renderToolDocs(tools []mcp.Tool) string {
	byCategory := map[string][]mcp.Tool{}
	for _, tool := range tools {
		c := toolCategory(tool)
		byCategory[c] = append(byCategory[c], tool)
	}

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools exposed by `drivefacade serve`. This file is generated by `drivefacade generate-docs`.\n\n")

	sb.WriteString("## Safety Mode\n\n")
	sb.WriteString("The server starts in read-only mode and registers only the read tools. ")
	sb.WriteString("The write tools are registered when `serve` runs with `--yolo` or `server.yolo = true`.\n\n")

	for _, category := range []string{categoryRead, categoryWrite} {
		if len(byCategory[category]) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range byCategory[category] {
			renderTool(&sb, tool)
		}
	}
	return sb.String()
}

// toolCategory reads the read-only hint; unannotated tools count as write
// tools.
func toolCategory(tool mcp.Tool) string {
	if hint := tool.Annotations.ReadOnlyHint; hint != nil && *hint {
		return categoryRead
	}
	return categoryWrite
}

func renderTool(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}
	if hint := tool.Annotations.DestructiveHint; hint != nil && *hint && toolCategory(tool) == categoryWrite {
		sb.WriteString("**Destructive:** changes cannot be undone.\n\n")
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		sb.WriteString("No arguments.\n\n")
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|----------|------|----------|-------------|\n")
	for _, name := range names {
		prop, _ := props[name].(map[string]interface{})
		typ, _ := prop["type"].(string)
		if typ == "" {
			typ = "any"
		}
		desc, _ := prop["description"].(string)
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", name, typ, required, strings.ReplaceAll(desc, "|", `\|`))
	}
	sb.WriteString("\n")
}
