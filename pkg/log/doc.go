// Package log provides protocol capture for RetroFrame transmissions.
//
// This package defines the Logger interface and Event type for recording
// every step of a transmission: its start, each device request, and the
// final outcome. It is separate from operational logging (slog) - protocol
// capture is a complete machine-readable trace for debugging device issues.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field debugging: write to a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/retroframe/send.rlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys, using
// the .rlog extension. The retroframe-log command views and filters them.
package log
