package commands

import (
	"fmt"
	"io"
	"time"

	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

// TransmissionSummary aggregates the events of one transmission.
type TransmissionSummary struct {
	ID        string
	Device    string
	Started   time.Time
	Frames    int
	Uploaded  int
	Bytes     int
	Duration  time.Duration
	Completed bool
	Failed    bool
	FailedOp  transport.Operation
	FailedAt  int
	Error     string
}

// Summarize reads the capture file at path and returns one summary per
// transmission, in the order the transmissions started.
func Summarize(path string) ([]*TransmissionSummary, error) {
	reader, err := rflog.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	byID := make(map[string]*TransmissionSummary)
	var order []*TransmissionSummary

	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		s, ok := byID[ev.TransmissionID]
		if !ok {
			s = &TransmissionSummary{ID: ev.TransmissionID, Started: ev.Timestamp, FailedAt: -1}
			byID[ev.TransmissionID] = s
			order = append(order, s)
		}
		if ev.DeviceAddr != "" {
			s.Device = ev.DeviceAddr
		}

		switch ev.Category {
		case rflog.CategoryTransmission:
			switch ev.Phase {
			case rflog.PhaseStart:
				s.Started = ev.Timestamp
				s.Frames = ev.Size
			case rflog.PhaseSuccess:
				s.Completed = true
				s.Duration = ev.Duration
			case rflog.PhaseFailure:
				s.Failed = true
				s.Duration = ev.Duration
				s.FailedOp = ev.Operation
				s.FailedAt = ev.FrameIndex
				if ev.Error != nil {
					s.Error = ev.Error.Message
				}
			}
		case rflog.CategoryRequest:
			if ev.Operation == transport.OpUpload && ev.Phase == rflog.PhaseSuccess {
				s.Uploaded++
				s.Bytes += ev.Size
			}
		}
	}
	return order, nil
}

// RunStats writes a per-transmission summary of the capture file to w.
func RunStats(path string, w io.Writer) error {
	summaries, err := Summarize(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Transmissions: %d\n", len(summaries))
	for _, s := range summaries {
		status := "incomplete"
		switch {
		case s.Completed:
			status = "ok"
		case s.Failed:
			status = "failed at " + s.FailedOp.String()
			if s.FailedOp == transport.OpUpload {
				status += fmt.Sprintf(" frame %d", s.FailedAt)
			}
		}
		fmt.Fprintf(w, "\n%s  %s\n", s.ID, s.Started.UTC().Format(time.RFC3339))
		if s.Device != "" {
			fmt.Fprintf(w, "  Device:   %s\n", s.Device)
		}
		fmt.Fprintf(w, "  Frames:   %d/%d uploaded (%d bytes)\n", s.Uploaded, s.Frames, s.Bytes)
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(s.Duration))
		fmt.Fprintf(w, "  Status:   %s\n", status)
		if s.Error != "" {
			fmt.Fprintf(w, "  Error:    %s\n", s.Error)
		}
	}
	return nil
}
