package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/drivefacade/internal/drive"
)

func newQuotaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Print the storage still available",
		Long: `Print the number of bytes still available in the account.
Exits with an error when the quota is exhausted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			quota, err := client.Quota(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), quota)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), quota.String())
			return err
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search NAME",
		Short: "Find files whose name contains NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			files, err := client.SearchFiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printFiles(cmd.OutOrStdout(), files, opts.jsonOutput)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the first files of the drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			if !opts.jsonOutput && limit == drive.ShowFilesPageSize {
				return client.ShowFiles(cmd.Context(), cmd.OutOrStdout())
			}

			files, err := client.ListFiles(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printFiles(cmd.OutOrStdout(), files, opts.jsonOutput)
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", drive.ShowFilesPageSize, "maximum number of files to list")
	return cmd
}

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download FILE_ID",
		Short: "Write the content of a file to stdout or a local path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := client.DownloadFile(cmd.Context(), args[0], w)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %d bytes to %s\n", n, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "local file to write (default: stdout)")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete FILE_ID...",
		Short: "Permanently delete files",
		Long: `Permanently delete one or more files. Files are not moved to the trash.
Every file is attempted; the command fails if any deletion failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			var errs []error
			for _, fileID := range args {
				if err := client.DeleteFile(cmd.Context(), fileID); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", fileID)
			}
			return errors.Join(errs...)
		},
	}
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "upload NAME",
		Short: "Upload a local file or stdin as a new file named NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(cmd.Context(), nil)
			if err != nil {
				return err
			}

			var file *drive.RemoteFile
			if path != "" {
				file, err = client.CreateFile(cmd.Context(), path, args[0])
			} else {
				data, rerr := io.ReadAll(cmd.InOrStdin())
				if rerr != nil {
					return fmt.Errorf("failed to read stdin: %w", rerr)
				}
				file, err = client.StoreFile(cmd.Context(), data, args[0])
			}
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), file)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", file.Name, file.ID)
			return err
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "local file to upload (default: read stdin)")
	return cmd
}

func printFiles(w io.Writer, files []drive.RemoteFile, asJSON bool) error {
	if asJSON {
		if files == nil {
			files = []drive.RemoteFile{}
		}
		return printJSON(w, files)
	}
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No files found.")
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", f.Name, f.ID); err != nil {
			return err
		}
	}
	return nil
}
