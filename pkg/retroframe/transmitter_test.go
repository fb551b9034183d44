package retroframe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retroframe/retroframe-go/pkg/animation"
	"github.com/retroframe/retroframe-go/pkg/framebuffer"
	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// ---------------------------------------------------------------------------
// stubTransport
// ---------------------------------------------------------------------------

type stubTransport struct{ mock.Mock }

func (s *stubTransport) ClearBuffers(ctx context.Context) error {
	return s.Called(ctx).Error(0)
}
func (s *stubTransport) UploadBuffer(ctx context.Context, buf []byte) error {
	// Copy so later assertions see exactly what was sent.
	return s.Called(ctx, append([]byte(nil), buf...)).Error(0)
}
func (s *stubTransport) Show(ctx context.Context, delay time.Duration) error {
	return s.Called(ctx, delay).Error(0)
}

// calledMethods returns the method names in call order.
func (s *stubTransport) calledMethods() []string {
	var out []string
	for _, c := range s.Calls {
		out = append(out, c.Method)
	}
	return out
}

// uploads returns the upload bodies in call order.
func (s *stubTransport) uploads() [][]byte {
	var out [][]byte
	for _, c := range s.Calls {
		if c.Method == "UploadBuffer" {
			out = append(out, c.Arguments.Get(1).([]byte))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// recordingLogger
// ---------------------------------------------------------------------------

type recordingLogger struct {
	events []rflog.Event
}

func (r *recordingLogger) Log(e rflog.Event) { r.events = append(r.events, e) }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func solidFrame(cells int, spec string) framebuffer.Frame {
	f := make(framebuffer.Frame, cells)
	for i := range f {
		f[i] = spec
	}
	return f
}

// numberedAnimation gives every frame a distinct blue value so upload order
// can be read back from the buffers.
func numberedAnimation(frames int) animation.Animation {
	a := animation.New(2, 2)
	for i := 0; i < frames; i++ {
		a.Frames = append(a.Frames, solidFrame(4, fmt.Sprintf("rgb(0, 0, %d)", i)))
	}
	return a
}

func newTestTransmitter(t *testing.T, tr transport.Transport, cfg Config) *Transmitter {
	t.Helper()
	tx, err := New(tr, cfg)
	require.NoError(t, err)
	return tx
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTransmitEndToEndBytes(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil).Once()
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil).Twice()
	tr.On("Show", mock.Anything, 200*time.Millisecond).Return(nil).Once()

	anim := animation.New(2, 2, solidFrame(4, "#ff0000"), make(framebuffer.Frame, 4))
	tx := newTestTransmitter(t, tr, Config{})

	require.NoError(t, tx.Transmit(context.Background(), anim))

	tr.AssertExpectations(t)
	assert.Equal(t, []string{"ClearBuffers", "UploadBuffer", "UploadBuffer", "Show"}, tr.calledMethods())

	uploads := tr.uploads()
	require.Len(t, uploads, 2)
	assert.Equal(t, bytes.Repeat([]byte{0, 0, 255, 1}, 4), uploads[0])
	assert.Equal(t, bytes.Repeat([]byte{0, 0, 0, 1}, 4), uploads[1])
}

func TestTransmitPreservesFrameOrder(t *testing.T) {
	const n = 12
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, mock.Anything).Return(nil)

	tx := newTestTransmitter(t, tr, Config{})
	require.NoError(t, tx.Transmit(context.Background(), numberedAnimation(n)))

	uploads := tr.uploads()
	require.Len(t, uploads, n)
	for i, buf := range uploads {
		// First byte of each cell is blue.
		assert.Equal(t, byte(i), buf[0], "upload %d", i)
	}
	tr.AssertNumberOfCalls(t, "ClearBuffers", 1)
	tr.AssertNumberOfCalls(t, "Show", 1)
}

func TestTransmitClearFailure(t *testing.T) {
	cause := errors.New("connection refused")
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(cause)

	tx := newTestTransmitter(t, tr, Config{})
	err := tx.Transmit(context.Background(), numberedAnimation(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClearFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUploadFailed)
	assert.NotErrorIs(t, err, ErrShowFailed)

	var te *TransmissionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, transport.OpClear, te.Op)
	assert.Equal(t, -1, te.FrameIndex)

	tr.AssertNotCalled(t, "UploadBuffer", mock.Anything, mock.Anything)
	tr.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
}

func TestTransmitUploadFailureStopsAtIndex(t *testing.T) {
	const n = 5
	for k := 0; k < n; k++ {
		t.Run(fmt.Sprintf("fail_at_%d", k), func(t *testing.T) {
			tr := &stubTransport{}
			tr.On("ClearBuffers", mock.Anything).Return(nil)
			if k > 0 {
				// Times(0) would mean unlimited.
				tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil).Times(k)
			}
			tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(errors.New("device busy")).Once()

			tx := newTestTransmitter(t, tr, Config{})
			err := tx.Transmit(context.Background(), numberedAnimation(n))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUploadFailed)

			var te *TransmissionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, transport.OpUpload, te.Op)
			assert.Equal(t, k, te.FrameIndex)
			assert.Contains(t, err.Error(), fmt.Sprintf("frame %d", k))

			tr.AssertNumberOfCalls(t, "UploadBuffer", k+1)
			tr.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
		})
	}
}

func TestTransmitShowFailure(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, mock.Anything).Return(&transport.StatusError{
		Op: transport.OpShow, Method: http.MethodPost, Path: transport.PathShow, StatusCode: http.StatusServiceUnavailable,
	})

	tx := newTestTransmitter(t, tr, Config{})
	err := tx.Transmit(context.Background(), numberedAnimation(2))

	assert.ErrorIs(t, err, ErrShowFailed)
	var se *transport.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	tr.AssertNumberOfCalls(t, "UploadBuffer", 2)
}

func TestTransmitCustomDelay(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, 750*time.Millisecond).Return(nil).Once()

	tx := newTestTransmitter(t, tr, Config{FrameDelay: 750 * time.Millisecond})
	require.NoError(t, tx.Transmit(context.Background(), numberedAnimation(1)))
	tr.AssertExpectations(t)
}

func TestTransmitZeroFrames(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, DefaultFrameDelay).Return(nil)

	tx := newTestTransmitter(t, tr, Config{})
	require.NoError(t, tx.Transmit(context.Background(), animation.New(2, 2)))

	assert.Equal(t, []string{"ClearBuffers", "Show"}, tr.calledMethods())
}

func TestTransmitInvalidAnimationSendsNothing(t *testing.T) {
	tr := &stubTransport{}
	anim := animation.New(2, 2, make(framebuffer.Frame, 4), make(framebuffer.Frame, 3))

	tx := newTestTransmitter(t, tr, Config{})
	err := tx.Transmit(context.Background(), anim)

	assert.ErrorIs(t, err, ErrInvalidAnimation)
	assert.ErrorIs(t, err, animation.ErrCellCount)
	assert.Empty(t, tr.Calls)
}

func TestTransmitCancelledContext(t *testing.T) {
	tr := &stubTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := newTestTransmitter(t, tr, Config{})
	err := tx.Transmit(ctx, numberedAnimation(2))

	assert.ErrorIs(t, err, ErrClearFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.Calls)
}

func TestTransmitCancelledBetweenUploads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil).Once().Run(func(mock.Arguments) { cancel() })

	tx := newTestTransmitter(t, tr, Config{})
	err := tx.Transmit(ctx, numberedAnimation(3))

	var te *TransmissionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, transport.OpUpload, te.Op)
	assert.Equal(t, 1, te.FrameIndex)
	assert.ErrorIs(t, err, context.Canceled)
	tr.AssertNumberOfCalls(t, "UploadBuffer", 1)
}

func TestTransmitterReusableAfterFailure(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(errors.New("down")).Once()
	tr.On("ClearBuffers", mock.Anything).Return(nil).Once()
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, mock.Anything).Return(nil)

	tx := newTestTransmitter(t, tr, Config{})
	anim := numberedAnimation(2)

	assert.ErrorIs(t, tx.Transmit(context.Background(), anim), ErrClearFailed)
	assert.NoError(t, tx.Transmit(context.Background(), anim))
	tr.AssertNumberOfCalls(t, "UploadBuffer", 2)
}

func TestTransmitCaptureEvents(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(nil).Once()
	tr.On("UploadBuffer", mock.Anything, mock.Anything).Return(&transport.StatusError{StatusCode: 507}).Once()

	rec := &recordingLogger{}
	tx := newTestTransmitter(t, tr, Config{DeviceAddr: "http://frame.local", ProtocolLogger: rec})

	err := tx.Transmit(context.Background(), numberedAnimation(3))
	require.ErrorIs(t, err, ErrUploadFailed)

	type key struct {
		cat   rflog.Category
		phase rflog.Phase
		op    transport.Operation
		frame int
	}
	var got []key
	for _, e := range rec.events {
		got = append(got, key{e.Category, e.Phase, e.Operation, e.FrameIndex})
	}
	want := []key{
		{rflog.CategoryTransmission, rflog.PhaseStart, transport.OpNone, -1},
		{rflog.CategoryRequest, rflog.PhaseStart, transport.OpClear, -1},
		{rflog.CategoryRequest, rflog.PhaseSuccess, transport.OpClear, -1},
		{rflog.CategoryRequest, rflog.PhaseStart, transport.OpUpload, 0},
		{rflog.CategoryRequest, rflog.PhaseSuccess, transport.OpUpload, 0},
		{rflog.CategoryRequest, rflog.PhaseStart, transport.OpUpload, 1},
		{rflog.CategoryRequest, rflog.PhaseFailure, transport.OpUpload, 1},
		{rflog.CategoryTransmission, rflog.PhaseFailure, transport.OpUpload, 1},
	}
	assert.Equal(t, want, got)

	id := rec.events[0].TransmissionID
	assert.NotEmpty(t, id)
	for _, e := range rec.events {
		assert.Equal(t, id, e.TransmissionID)
		assert.Equal(t, "http://frame.local", e.DeviceAddr)
		assert.False(t, e.Timestamp.IsZero())
	}

	failure := rec.events[6]
	require.NotNil(t, failure.Error)
	assert.Equal(t, 507, failure.Error.StatusCode)
	assert.Equal(t, framebuffer.EncodedSize(4), failure.Size)
}

func TestTransmitNewIDPerCall(t *testing.T) {
	tr := &stubTransport{}
	tr.On("ClearBuffers", mock.Anything).Return(nil)
	tr.On("Show", mock.Anything, mock.Anything).Return(nil)

	rec := &recordingLogger{}
	tx := newTestTransmitter(t, tr, Config{ProtocolLogger: rec})
	anim := animation.New(1, 1)

	require.NoError(t, tx.Transmit(context.Background(), anim))
	first := rec.events[0].TransmissionID
	require.NoError(t, tx.Transmit(context.Background(), anim))
	last := rec.events[len(rec.events)-1].TransmissionID

	assert.NotEqual(t, first, last)
}

func TestNew(t *testing.T) {
	_, err := New(nil, Config{})
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = New(&stubTransport{}, Config{FrameDelay: -time.Second})
	assert.Error(t, err)

	tx, err := New(&stubTransport{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFrameDelay, tx.FrameDelay())

	assert.Equal(t, DefaultFrameDelay, DefaultConfig().FrameDelay)
}

func TestTransmissionErrorMessages(t *testing.T) {
	cause := errors.New("timeout")
	tests := []struct {
		err  *TransmissionError
		want string
	}{
		{&TransmissionError{Op: transport.OpClear, FrameIndex: -1, Err: cause}, "clear buffers failed: timeout"},
		{&TransmissionError{Op: transport.OpUpload, FrameIndex: 3, Err: cause}, "upload failed: frame 3: timeout"},
		{&TransmissionError{Op: transport.OpShow, FrameIndex: -1, Err: cause}, "show failed: timeout"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
