// Package logging provides structured logging helpers for kubesync.
//
// All packages log through log/slog. This package fixes the attribute keys
// so that records from the store, the watch multiplexer and the CLI can be
// filtered consistently:
//
//	logger := logging.WithResource(slog.Default(), "/api/v1/pods")
//	logger.Warn("dropping malformed watch event",
//	    logging.Namespace("default"),
//	    logging.Err(err))
package logging
