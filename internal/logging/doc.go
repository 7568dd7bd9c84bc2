// Package logging provides structured logging helpers for drivefacade.
//
// Everything logs through log/slog. New builds the process logger from the
// configured level and format; the attribute helpers keep key names
// consistent between the drive client, the MCP tools and the CLI.
//
// Create the logger once at startup:
//
//	logger, err := logging.New(os.Stderr, "info", "text")
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Attach standard attributes:
//
//	logger.Info("share batch executed",
//	    logging.Operation("share"),
//	    logging.FileID(fileID),
//	    logging.UserHash(email))
//
// Email addresses are hashed before they reach a log line and tokens are
// never logged.
package logging
