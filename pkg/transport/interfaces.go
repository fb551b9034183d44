package transport

import (
	"context"
	"time"
)

// Transport is the device protocol as seen by a transmitter.
// Implemented by Client.
type Transport interface {
	// ClearBuffers removes every frame buffer stored on the device.
	ClearBuffers(ctx context.Context) error

	// UploadBuffer appends one frame buffer. The call returns after the
	// device has acknowledged the upload.
	UploadBuffer(ctx context.Context, buf []byte) error

	// Show starts playback of the stored buffers, holding each frame for delay.
	Show(ctx context.Context, delay time.Duration) error
}

// Compile-time interface satisfaction check.
var _ Transport = (*Client)(nil)
