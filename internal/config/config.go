// Package config loads drivefacade settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, DRIVEFACADE_*
// environment variables, then CLI flags (applied by the cmd package).
package config

import (
	"github.com/teemow/drivefacade/internal/drive"
)

// Config is the decoded config file.
type Config struct {
	// CredentialsFile is a service account or authorized user JSON file.
	// Empty means Application Default Credentials.
	CredentialsFile string `toml:"credentials_file"`

	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	// Endpoint and BatchEndpoint override the Drive API URLs
	Endpoint      string `toml:"endpoint"`
	BatchEndpoint string `toml:"batch_endpoint"`

	// PageSize is the files.list page size used by search (0 lets Drive decide)
	PageSize int64 `toml:"page_size"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Share  ShareConfig  `toml:"share"`
	Server ServerConfig `toml:"server"`
}

// ShareConfig shapes the permissions created by share.
type ShareConfig struct {
	Role                  string `toml:"role"`
	TransferOwnership     bool   `toml:"transfer_ownership"`
	SendNotificationEmail bool   `toml:"send_notification_email"`
}

// ServerConfig configures the MCP serve command.
type ServerConfig struct {
	// MetricsAddr is the listen address of the Prometheus endpoint; empty disables it
	MetricsAddr string `toml:"metrics_addr"`

	// Yolo registers the write tools (delete, upload, share)
	Yolo bool `toml:"yolo"`

	// AllowLocalPaths lets drive_upload_file read files from the server host
	AllowLocalPaths bool `toml:"allow_local_paths"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	share := drive.DefaultShareOptions()
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Share: ShareConfig{
			Role:                  share.Role,
			TransferOwnership:     share.TransferOwnership,
			SendNotificationEmail: share.SendNotificationEmail,
		},
	}
}

// DriveConfig maps the file settings onto a drive.Config. Logger, metrics
// and HTTP client are left for the caller.
func (c *Config) DriveConfig() drive.Config {
	return drive.Config{
		CredentialsFile:    c.CredentialsFile,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Endpoint:           c.Endpoint,
		BatchEndpoint:      c.BatchEndpoint,
		PageSize:           c.PageSize,
		Share: drive.ShareOptions{
			Role:                  c.Share.Role,
			TransferOwnership:     c.Share.TransferOwnership,
			SendNotificationEmail: c.Share.SendNotificationEmail,
		},
	}
}
