package retroframe

import (
	"errors"
	"fmt"

	"github.com/retroframe/retroframe-go/pkg/transport"
)

// Transmission errors. A *TransmissionError matches exactly one of the step
// errors with errors.Is.
var (
	ErrClearFailed  = errors.New("clear buffers failed")
	ErrUploadFailed = errors.New("upload failed")
	ErrShowFailed   = errors.New("show failed")

	ErrInvalidAnimation = errors.New("invalid animation")
	ErrNoTransport      = errors.New("transport is required")
)

// TransmissionError reports the step at which a transmission stopped.
type TransmissionError struct {
	// Op is the failed step.
	Op transport.Operation

	// FrameIndex is the 0-based index of the frame whose upload failed,
	// -1 for clear and show.
	FrameIndex int

	// Err is the underlying transport or context error.
	Err error
}

func (e *TransmissionError) Error() string {
	if e.Op == transport.OpUpload {
		return fmt.Sprintf("%v: frame %d: %v", e.stepErr(), e.FrameIndex, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.stepErr(), e.Err)
}

// Unwrap returns the underlying error.
func (e *TransmissionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the step error for e.Op.
func (e *TransmissionError) Is(target error) bool {
	return target != nil && target == e.stepErr()
}

func (e *TransmissionError) stepErr() error {
	switch e.Op {
	case transport.OpClear:
		return ErrClearFailed
	case transport.OpUpload:
		return ErrUploadFailed
	case transport.OpShow:
		return ErrShowFailed
	default:
		return nil
	}
}
