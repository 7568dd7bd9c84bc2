package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/teemow/drivefacade/internal/logging"
)

// validRoles are the permission roles Drive accepts.
var validRoles = map[string]bool{
	"owner":         true,
	"organizer":     true,
	"fileOrganizer": true,
	"writer":        true,
	"commenter":     true,
	"reader":        true,
}

// Validate reports every invalid setting in cfg.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if cfg.LogFormat != logging.FormatText && cfg.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("log_format: must be %q or %q, got %q",
			logging.FormatText, logging.FormatJSON, cfg.LogFormat))
	}
	if cfg.PageSize < 0 || cfg.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("page_size: must be between 0 and 1000, got %d", cfg.PageSize))
	}
	if !validRoles[cfg.Share.Role] {
		errs = append(errs, fmt.Errorf("share.role: unknown role %q", cfg.Share.Role))
	}
	if cfg.Server.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Server.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("server.metrics_addr: %w", err))
		}
	}

	return errors.Join(errs...)
}
