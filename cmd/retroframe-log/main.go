// Command retroframe-log views RetroFrame protocol capture files.
//
// Capture files are written by retroframe-send -protocol-log. Each record is
// one step of a transmission: clear, an upload per frame, or show.
//
// Usage:
//
//	retroframe-log [flags] <file.rlog>
//
// Flags:
//
//	-transmission string  Only show this transmission ID
//	-step string          Only show one step (clear, upload, show)
//	-errors               Only show failures
//	-format string        Output format: text, json (default "text")
//	-stats                Print a per-transmission summary instead of events
//
// Examples:
//
//	# Everything that went wrong
//	retroframe-log -errors send.rlog
//
//	# Upload timings as JSON lines
//	retroframe-log -step upload -format json send.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroframe/retroframe-go/cmd/retroframe-log/commands"
)

var (
	transmission = flag.String("transmission", "", "Only show this transmission ID")
	step         = flag.String("step", "", "Only show one step (clear, upload, show)")
	errorsOnly   = flag.Bool("errors", false, "Only show failures")
	format       = flag.String("format", "text", "Output format: text, json")
	stats        = flag.Bool("stats", false, "Print a per-transmission summary instead of events")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `retroframe-log - View RetroFrame protocol capture files

Usage:
  retroframe-log [flags] <file.rlog>

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		flag.Usage()
		return 1
	}
	path := flag.Arg(0)

	var err error
	if *stats {
		err = commands.RunStats(path, os.Stdout)
	} else {
		err = commands.RunView(path, commands.ViewOptions{
			TransmissionID: *transmission,
			Step:           *step,
			ErrorsOnly:     *errorsOnly,
			Format:         *format,
		}, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
