// Package simulator implements an in-process RetroFrame device.
//
// Device serves the same REST API as the hardware and records everything it
// receives, which makes it suitable both as an httptest handler and as the
// backend of the retroframe-sim command. Failures can be injected per
// operation to exercise error paths of clients.
package simulator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/retroframe/retroframe-go/pkg/framebuffer"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// DefaultMaxBuffers limits how many frame buffers the device stores.
const DefaultMaxBuffers = 1024

// maxUploadSize bounds a single upload body.
const maxUploadSize = 16 << 20

// Config configures a simulated device.
type Config struct {
	// CellCount, when positive, is the panel size in cells. Uploads whose
	// length differs from 4*CellCount are rejected.
	CellCount int

	// MaxBuffers is the buffer capacity (default: DefaultMaxBuffers).
	MaxBuffers int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Show is one recorded show request.
type Show struct {
	Delay   time.Duration
	Buffers int
	At      time.Time
}

// Request is one recorded API request.
type Request struct {
	Op     transport.Operation
	Method string
	Path   string
	Size   int
	Status int
}

// Status is the body of GET /api/status.
type Status struct {
	Buffers   int   `json:"buffers"`
	Playing   bool  `json:"playing"`
	DelayMS   int64 `json:"delay_ms"`
	CellCount int   `json:"cell_count,omitempty"`
	Shows     int   `json:"shows"`
}

// Device is a simulated RetroFrame device. It is safe for concurrent use.
type Device struct {
	config Config
	mux    *http.ServeMux

	mu       sync.Mutex
	buffers  [][]byte
	shows    []Show
	requests []Request
	playing  bool
	counts   map[transport.Operation]int
	failures map[transport.Operation]map[int]int
}

// New creates a simulated device.
func New(config Config) *Device {
	if config.MaxBuffers <= 0 {
		config.MaxBuffers = DefaultMaxBuffers
	}
	d := &Device{
		config:   config,
		mux:      http.NewServeMux(),
		counts:   make(map[transport.Operation]int),
		failures: make(map[transport.Operation]map[int]int),
	}
	d.mux.HandleFunc(transport.PathBuffers, d.handleBuffers)
	d.mux.HandleFunc(transport.PathShow, d.handleShow)
	d.mux.HandleFunc(transport.PathStatus, d.handleStatus)
	return d
}

// ServeHTTP implements http.Handler.
func (d *Device) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mux.ServeHTTP(w, r)
}

// FailOn makes the nth (1-based) request of op fail with status.
func (d *Device) FailOn(op transport.Operation, nth, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures[op] == nil {
		d.failures[op] = make(map[int]int)
	}
	d.failures[op][nth] = status
}

// Buffers returns copies of the stored frame buffers in arrival order.
func (d *Device) Buffers() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.buffers))
	for i, b := range d.buffers {
		out[i] = append([]byte(nil), b...)
	}
	return out
}

// Shows returns the recorded show requests.
func (d *Device) Shows() []Show {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Show(nil), d.shows...)
}

// Requests returns every request received, in order.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.requests...)
}

// Status returns the current device status.
func (d *Device) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

// Reset clears buffers, history and injected failures.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffers = nil
	d.shows = nil
	d.requests = nil
	d.playing = false
	d.counts = make(map[transport.Operation]int)
	d.failures = make(map[transport.Operation]map[int]int)
}

func (d *Device) statusLocked() Status {
	s := Status{
		Buffers:   len(d.buffers),
		Playing:   d.playing,
		CellCount: d.config.CellCount,
		Shows:     len(d.shows),
	}
	if n := len(d.shows); n > 0 {
		s.DelayMS = d.shows[n-1].Delay.Milliseconds()
	}
	return s
}

func (d *Device) handleBuffers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodDelete:
		d.handleClear(w, r)
	case http.MethodPost:
		d.handleUpload(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Device) handleClear(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status, fail := d.injectedLocked(transport.OpClear); fail {
		d.recordLocked(transport.OpClear, r, 0, status)
		http.Error(w, "injected failure", status)
		return
	}

	d.buffers = nil
	d.playing = false
	d.recordLocked(transport.OpClear, r, 0, http.StatusOK)
	w.WriteHeader(http.StatusOK)
}

func (d *Device) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize+1))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	reject := func(status int, msg string) {
		d.recordLocked(transport.OpUpload, r, len(body), status)
		http.Error(w, msg, status)
	}

	if status, fail := d.injectedLocked(transport.OpUpload); fail {
		reject(status, "injected failure")
		return
	}
	switch {
	case r.Header.Get("Content-Type") != transport.ContentTypeBinary:
		reject(http.StatusUnsupportedMediaType, "expected "+transport.ContentTypeBinary)
		return
	case len(body) == 0:
		reject(http.StatusBadRequest, "empty frame buffer")
		return
	case len(body) > maxUploadSize:
		reject(http.StatusRequestEntityTooLarge, "frame buffer too large")
		return
	case len(body)%framebuffer.BytesPerCell != 0:
		reject(http.StatusBadRequest, fmt.Sprintf("frame buffer length %d is not a multiple of %d", len(body), framebuffer.BytesPerCell))
		return
	case d.config.CellCount > 0 && len(body) != framebuffer.EncodedSize(d.config.CellCount):
		reject(http.StatusBadRequest, fmt.Sprintf("frame buffer length %d, want %d", len(body), framebuffer.EncodedSize(d.config.CellCount)))
		return
	case len(d.buffers) >= d.config.MaxBuffers:
		reject(http.StatusInsufficientStorage, "buffer capacity reached")
		return
	}

	d.buffers = append(d.buffers, body)
	d.recordLocked(transport.OpUpload, r, len(body), http.StatusCreated)
	w.WriteHeader(http.StatusCreated)
}

func (d *Device) handleShow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transport.ShowRequest
	decodeErr := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req)

	d.mu.Lock()
	defer d.mu.Unlock()

	if status, fail := d.injectedLocked(transport.OpShow); fail {
		d.recordLocked(transport.OpShow, r, 0, status)
		http.Error(w, "injected failure", status)
		return
	}
	if decodeErr != nil || req.Delay < 0 {
		d.recordLocked(transport.OpShow, r, 0, http.StatusBadRequest)
		http.Error(w, "invalid show request", http.StatusBadRequest)
		return
	}

	show := Show{
		Delay:   time.Duration(req.Delay) * time.Millisecond,
		Buffers: len(d.buffers),
		At:      time.Now(),
	}
	d.shows = append(d.shows, show)
	d.playing = len(d.buffers) > 0
	d.recordLocked(transport.OpShow, r, 0, http.StatusOK)

	writeJSON(w, http.StatusOK, d.statusLocked())
}

func (d *Device) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, d.Status())
}

// injectedLocked counts a request of op and reports an injected failure.
func (d *Device) injectedLocked(op transport.Operation) (int, bool) {
	d.counts[op]++
	status, ok := d.failures[op][d.counts[op]]
	return status, ok
}

func (d *Device) recordLocked(op transport.Operation, r *http.Request, size, status int) {
	d.requests = append(d.requests, Request{
		Op:     op,
		Method: r.Method,
		Path:   r.URL.Path,
		Size:   size,
		Status: status,
	})
	if d.config.Logger != nil {
		d.config.Logger.Debug("request",
			"op", op.String(),
			"size", size,
			"status", status,
			"buffers", len(d.buffers))
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
