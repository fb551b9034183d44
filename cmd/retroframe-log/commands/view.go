// Package commands implements the retroframe-log CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// ViewOptions selects and formats events for RunView.
type ViewOptions struct {
	TransmissionID string
	Step           string
	ErrorsOnly     bool
	Format         string
}

// Filter converts the options into a reader filter.
func (o ViewOptions) Filter() (rflog.Filter, error) {
	f := rflog.Filter{
		TransmissionID: o.TransmissionID,
		ErrorsOnly:     o.ErrorsOnly,
	}
	if o.Step != "" {
		op, err := ParseStepFlag(o.Step)
		if err != nil {
			return rflog.Filter{}, err
		}
		f.Operation = &op
	}
	return f, nil
}

// ParseStepFlag parses a step name (clear, upload, show).
func ParseStepFlag(s string) (transport.Operation, error) {
	op, ok := transport.ParseOperation(strings.ToUpper(strings.TrimSpace(s)))
	if !ok {
		return transport.OpNone, fmt.Errorf("invalid step: %s (valid: clear, upload, show)", s)
	}
	return op, nil
}

// RunView writes the matching events of the capture file at path to w.
func RunView(path string, opts ViewOptions, w io.Writer) error {
	filter, err := opts.Filter()
	if err != nil {
		return err
	}

	var write func(rflog.Event) error
	switch opts.Format {
	case "", "text":
		write = func(ev rflog.Event) error {
			formatEvent(w, ev)
			return nil
		}
	case "json":
		enc := json.NewEncoder(w)
		write = func(ev rflog.Event) error {
			return enc.Encode(toJSON(ev))
		}
	default:
		return fmt.Errorf("unknown format: %s (supported: text, json)", opts.Format)
	}

	reader, err := rflog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := write(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}

// formatEvent writes one event as a single line.
func formatEvent(w io.Writer, ev rflog.Event) {
	ts := ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [tx:%s] %-12s", ts, shortenID(ev.TransmissionID), ev.Category)

	if ev.Category == rflog.CategoryRequest {
		fmt.Fprintf(w, " %-6s", ev.Operation)
	}
	fmt.Fprintf(w, " %-7s", ev.Phase)

	switch {
	case ev.Category == rflog.CategoryRequest && ev.Operation == transport.OpUpload:
		fmt.Fprintf(w, " frame=%d size=%d", ev.FrameIndex, ev.Size)
	case ev.Category == rflog.CategoryTransmission && ev.Phase == rflog.PhaseStart:
		fmt.Fprintf(w, " frames=%d", ev.Size)
		if ev.DeviceAddr != "" {
			fmt.Fprintf(w, " device=%s", ev.DeviceAddr)
		}
	case ev.Category == rflog.CategoryTransmission && ev.Phase == rflog.PhaseFailure && ev.Operation != transport.OpNone:
		fmt.Fprintf(w, " step=%s", ev.Operation)
		if ev.Operation == transport.OpUpload {
			fmt.Fprintf(w, " frame=%d", ev.FrameIndex)
		}
	}

	if ev.Duration > 0 {
		fmt.Fprintf(w, " took=%s", formatDuration(ev.Duration))
	}
	if ev.Error != nil {
		if ev.Error.StatusCode != 0 {
			fmt.Fprintf(w, " status=%d", ev.Error.StatusCode)
		}
		fmt.Fprintf(w, " error=%q", ev.Error.Message)
	}
	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a transmission ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return d.Round(time.Millisecond).String()
	}
}

type jsonEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	TransmissionID string    `json:"transmission_id"`
	Category       string    `json:"category"`
	Phase          string    `json:"phase"`
	Operation      string    `json:"operation,omitempty"`
	FrameIndex     *int      `json:"frame,omitempty"`
	DeviceAddr     string    `json:"device,omitempty"`
	Size           int       `json:"size,omitempty"`
	DurationMS     float64   `json:"duration_ms,omitempty"`
	Error          string    `json:"error,omitempty"`
	StatusCode     int       `json:"status_code,omitempty"`
}

func toJSON(ev rflog.Event) jsonEvent {
	out := jsonEvent{
		Timestamp:      ev.Timestamp.UTC(),
		TransmissionID: ev.TransmissionID,
		Category:       ev.Category.String(),
		Phase:          ev.Phase.String(),
		DeviceAddr:     ev.DeviceAddr,
		Size:           ev.Size,
		DurationMS:     float64(ev.Duration.Microseconds()) / 1000,
	}
	if ev.Operation != transport.OpNone {
		out.Operation = ev.Operation.String()
	}
	if ev.FrameIndex >= 0 {
		idx := ev.FrameIndex
		out.FrameIndex = &idx
	}
	if ev.Error != nil {
		out.Error = ev.Error.Message
		out.StatusCode = ev.Error.StatusCode
	}
	return out
}
