package retroframe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/retroframe/retroframe-go/pkg/animation"
	"github.com/retroframe/retroframe-go/pkg/framebuffer"
	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// DefaultFrameDelay is how long the device shows each frame unless configured.
const DefaultFrameDelay = 200 * time.Millisecond

// Config configures a Transmitter.
type Config struct {
	// FrameDelay is the per-frame display time sent with the show request
	// (default: DefaultFrameDelay).
	FrameDelay time.Duration

	// DeviceAddr identifies the device in logs and capture events.
	// It does not affect where requests go; that is the transport's job.
	DeviceAddr string

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives a capture event for every step.
	// If nil, capture is disabled.
	ProtocolLogger rflog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FrameDelay: DefaultFrameDelay,
	}
}

// Transmitter drives the clear, upload and show sequence against one
// transport.
type Transmitter struct {
	transport transport.Transport
	config    Config
	capture   rflog.Logger
}

// New creates a Transmitter that sends over tr.
func New(tr transport.Transport, config Config) (*Transmitter, error) {
	if tr == nil {
		return nil, ErrNoTransport
	}
	if config.FrameDelay < 0 {
		return nil, fmt.Errorf("frame delay must not be negative, got %s", config.FrameDelay)
	}
	if config.FrameDelay == 0 {
		config.FrameDelay = DefaultFrameDelay
	}

	capture := config.ProtocolLogger
	if capture == nil {
		capture = rflog.NoopLogger{}
	}

	return &Transmitter{
		transport: tr,
		config:    config,
		capture:   capture,
	}, nil
}

// FrameDelay returns the configured per-frame delay.
func (t *Transmitter) FrameDelay() time.Duration {
	return t.config.FrameDelay
}

// Transmit sends anim to the device and starts playback.
//
// The animation is validated before any request is made. Uploads are issued
// and awaited one at a time in frame order; the first failure stops the
// transmission and show is not requested. ctx is checked before every step
// and passed to the transport for the step in flight.
func (t *Transmitter) Transmit(ctx context.Context, anim animation.Animation) error {
	if err := anim.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAnimation, err)
	}

	tx := &transmission{
		Transmitter: t,
		id:          uuid.NewString(),
		start:       time.Now(),
	}

	t.infoLog("transmitting animation",
		"transmission_id", tx.id,
		"device", t.config.DeviceAddr,
		"frames", anim.Len(),
		"rows", anim.Rows,
		"columns", anim.Columns)
	tx.record(rflog.Event{
		Category:   rflog.CategoryTransmission,
		Phase:      rflog.PhaseStart,
		FrameIndex: -1,
		Size:       anim.Len(),
	})

	err := tx.run(ctx, anim)
	tx.finish(err)
	return err
}

// transmission is the state of one Transmit call.
type transmission struct {
	*Transmitter
	id    string
	start time.Time
}

func (tx *transmission) run(ctx context.Context, anim animation.Animation) error {
	if err := tx.step(ctx, transport.OpClear, -1, 0, func(ctx context.Context) error {
		return tx.transport.ClearBuffers(ctx)
	}); err != nil {
		return err
	}

	for i, frame := range anim.Frames {
		buf := framebuffer.Encode(frame)
		if err := tx.step(ctx, transport.OpUpload, i, len(buf), func(ctx context.Context) error {
			return tx.transport.UploadBuffer(ctx, buf)
		}); err != nil {
			return err
		}
	}

	return tx.step(ctx, transport.OpShow, -1, 0, func(ctx context.Context) error {
		return tx.transport.Show(ctx, tx.config.FrameDelay)
	})
}

// step runs one device request and records it. It returns a
// *TransmissionError on failure.
func (tx *transmission) step(ctx context.Context, op transport.Operation, frame, size int, call func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &TransmissionError{Op: op, FrameIndex: frame, Err: err}
	}

	tx.record(rflog.Event{
		Category:   rflog.CategoryRequest,
		Phase:      rflog.PhaseStart,
		Operation:  op,
		FrameIndex: frame,
		Size:       size,
	})

	start := time.Now()
	err := call(ctx)
	elapsed := time.Since(start)

	if err != nil {
		tx.record(rflog.Event{
			Category:   rflog.CategoryRequest,
			Phase:      rflog.PhaseFailure,
			Operation:  op,
			FrameIndex: frame,
			Size:       size,
			Duration:   elapsed,
			Error:      errorData(err),
		})
		return &TransmissionError{Op: op, FrameIndex: frame, Err: err}
	}

	tx.record(rflog.Event{
		Category:   rflog.CategoryRequest,
		Phase:      rflog.PhaseSuccess,
		Operation:  op,
		FrameIndex: frame,
		Size:       size,
		Duration:   elapsed,
	})
	tx.debugLog("step complete",
		"transmission_id", tx.id,
		"op", op.String(),
		"frame", frame,
		"size", size,
		"duration", elapsed)
	return nil
}

func (tx *transmission) finish(err error) {
	elapsed := time.Since(tx.start)
	event := rflog.Event{
		Category:   rflog.CategoryTransmission,
		Phase:      rflog.PhaseSuccess,
		FrameIndex: -1,
		Duration:   elapsed,
	}

	if err != nil {
		event.Phase = rflog.PhaseFailure
		event.Error = errorData(err)
		var te *TransmissionError
		if errors.As(err, &te) {
			event.Operation = te.Op
			event.FrameIndex = te.FrameIndex
		}
		if tx.config.Logger != nil {
			tx.config.Logger.Warn("transmission failed",
				"transmission_id", tx.id,
				"device", tx.config.DeviceAddr,
				"duration", elapsed,
				"error", err)
		}
	} else {
		tx.infoLog("transmission complete",
			"transmission_id", tx.id,
			"device", tx.config.DeviceAddr,
			"duration", elapsed)
	}

	tx.record(event)
}

func (tx *transmission) record(event rflog.Event) {
	event.Timestamp = time.Now()
	event.TransmissionID = tx.id
	event.DeviceAddr = tx.config.DeviceAddr
	tx.capture.Log(event)
}

func errorData(err error) *rflog.ErrorEventData {
	data := &rflog.ErrorEventData{Message: err.Error()}
	var se *transport.StatusError
	if errors.As(err, &se) {
		data.StatusCode = se.StatusCode
	}
	return data
}

// infoLog logs an info message if logging is enabled.
func (t *Transmitter) infoLog(msg string, args ...any) {
	if t.config.Logger != nil {
		t.config.Logger.Info(msg, args...)
	}
}

// debugLog logs a debug message if logging is enabled.
func (t *Transmitter) debugLog(msg string, args ...any) {
	if t.config.Logger != nil {
		t.config.Logger.Debug(msg, args...)
	}
}
