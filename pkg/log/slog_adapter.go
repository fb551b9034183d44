package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger.
// Useful for development when you want to see device traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("transmission_id", event.TransmissionID),
		slog.String("category", event.Category.String()),
		slog.String("phase", event.Phase.String()),
	}

	if event.Category == CategoryRequest {
		attrs = append(attrs, slog.String("operation", event.Operation.String()))
		if event.FrameIndex >= 0 {
			attrs = append(attrs, slog.Int("frame", event.FrameIndex))
		}
	}
	if event.DeviceAddr != "" {
		attrs = append(attrs, slog.String("device", event.DeviceAddr))
	}
	if event.Size > 0 {
		attrs = append(attrs, slog.Int("size", event.Size))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Error != nil {
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.StatusCode != 0 {
			attrs = append(attrs, slog.Int("status_code", event.Error.StatusCode))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
