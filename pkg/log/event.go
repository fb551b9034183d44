package log

import (
	"time"

	"github.com/retroframe/retroframe-go/pkg/transport"
)

// Event is one protocol capture record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TransmissionID groups all events of one transmission (UUID).
	TransmissionID string `cbor:"2,keyasint"`

	// Category tells transmission-level events from device requests.
	Category Category `cbor:"3,keyasint"`

	// Phase is the point in the step's lifecycle.
	Phase Phase `cbor:"4,keyasint"`

	// Operation is the device request (CategoryRequest only).
	Operation transport.Operation `cbor:"5,keyasint,omitempty"`

	// FrameIndex is the 0-based frame of an upload, -1 otherwise.
	FrameIndex int `cbor:"6,keyasint"`

	// DeviceAddr is the device base address, if known.
	DeviceAddr string `cbor:"7,keyasint,omitempty"`

	// Size is the request body size in bytes, or the frame count for
	// transmission-level events.
	Size int `cbor:"8,keyasint,omitempty"`

	// Duration of the step (PhaseSuccess and PhaseFailure only).
	Duration time.Duration `cbor:"9,keyasint,omitempty"`

	// Error is set for PhaseFailure.
	Error *ErrorEventData `cbor:"10,keyasint,omitempty"`
}

// Category classifies the event.
type Category uint8

const (
	// CategoryTransmission covers a whole transmission.
	CategoryTransmission Category = 0
	// CategoryRequest covers a single device request.
	CategoryRequest Category = 1
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransmission:
		return "TRANSMISSION"
	case CategoryRequest:
		return "REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Phase is the lifecycle point an event records.
type Phase uint8

const (
	// PhaseStart is recorded before the step begins.
	PhaseStart Phase = 0
	// PhaseSuccess is recorded after the step completed.
	PhaseSuccess Phase = 1
	// PhaseFailure is recorded after the step failed.
	PhaseFailure Phase = 2
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "START"
	case PhaseSuccess:
		return "SUCCESS"
	case PhaseFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a failed step.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// StatusCode is the device's HTTP status, 0 for network errors.
	StatusCode int `cbor:"2,keyasint,omitempty"`
}
