package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShareCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "share FILE_ID EMAIL...",
		Short: "Grant users access to a file in one batch request",
		Long: `Grant every EMAIL access to FILE_ID. Emails may also be given as a
comma-separated list. All grants are sent in a single batch request; the
role, ownership transfer and notification settings come from the [share]
section of the config file.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var emails []string
			for _, arg := range args[1:] {
				emails = append(emails, parseCommaSeparatedList(arg)...)
			}
			if len(emails) == 0 {
				return fmt.Errorf("at least one email address is required")
			}

			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			result, err := client.ShareFile(cmd.Context(), args[0], emails)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				for _, g := range result.Grants {
					if g.Err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %v\n", g.EmailAddress, g.Err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: shared (permission %s)\n", g.EmailAddress, g.PermissionID)
				}
			}
			return result.Err()
		},
	}
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
