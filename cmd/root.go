package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/drivefacade/internal/config"
	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/instrumentation"
	"github.com/teemow/drivefacade/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// rootOptions holds the persistent flags and the state loaded before every
// command runs.
type rootOptions struct {
	configPath         string
	credentialsFile    string
	insecureSkipVerify bool
	logLevel           string
	logFormat          string
	jsonOutput         bool

	cfg    *config.Config
	logger *slog.Logger

	// httpClient replaces credential discovery; set by tests
	httpClient *http.Client
}

// Execute is the main entry point for the CLI application
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&rootOptions{}).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivefacade",
		Short: "A small facade over the Google Drive API",
		Long: `drivefacade checks storage quota, searches, lists, downloads, deletes,
uploads and shares files in Google Drive.

It can run as:
  - A standalone CLI tool
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	cmd.SetVersionTemplate(`{{printf "drivefacade version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		fmt.Sprintf("config file path (default %s, or %s)", config.DefaultConfigPath(), config.EnvConfig))
	cmd.PersistentFlags().StringVar(&opts.credentialsFile, "credentials", "",
		"Google credentials file (service account or authorized user JSON)")
	cmd.PersistentFlags().BoolVar(&opts.insecureSkipVerify, "insecure-skip-verify", false,
		"WARNING: disable TLS certificate verification")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")

	cmd.AddCommand(newQuotaCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newDownloadCmd(opts))
	cmd.AddCommand(newDeleteCmd(opts))
	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newShareCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load resolves the config file, env overrides and flags, in that order of
// increasing precedence, and installs the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Resolve(o.configPath, config.ReadEnvOverrides())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("credentials") {
		cfg.CredentialsFile = o.credentialsFile
	}
	if flags.Changed("insecure-skip-verify") {
		cfg.InsecureSkipVerify = o.insecureSkipVerify
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled")
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// newClient builds an initialized Drive client from the loaded config.
func (o *rootOptions) newClient(ctx context.Context, metrics *instrumentation.Metrics) (*drive.Client, error) {
	dc := o.cfg.DriveConfig()
	dc.HTTPClient = o.httpClient
	dc.Logger = logging.NewSlogAdapter(o.logger)
	dc.Metrics = metrics

	client := drive.NewClient(dc)
	if err := client.Init(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs no config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "drivefacade version %s\n", version)
			return err
		},
	}
}
