// Command retroframe-send transmits an animation file to a RetroFrame device.
//
// The animation is a YAML or JSON document with rows, columns and a list of
// frames, each a row-major list of CSS color strings. The device is cleared,
// every frame is uploaded in order and playback is started.
//
// Usage:
//
//	retroframe-send [flags] <animation.yaml>
//
// Flags:
//
//	-config string            Configuration file (YAML)
//	-device string            Device address, host[:port]
//	-delay duration           Per-frame display time (default 200ms)
//	-timeout duration         Per-request timeout (default 10s)
//	-discover                 Find the device over mDNS
//	-discover-timeout duration  How long to browse (default 3s)
//	-protocol-log string      Write a CBOR capture of every request to file
//	-log-level string         Log level: debug, info, warn, error (default "info")
//	-dry-run                  Print the frames instead of sending them
//	-version                  Show version information
//
// Flags given on the command line override the configuration file.
//
// Examples:
//
//	# Send to a known device
//	retroframe-send -device 192.168.1.50 heart.yaml
//
//	# Find the device on the local network and play slowly
//	retroframe-send -discover -delay 500ms heart.yaml
//
//	# Record what was sent
//	retroframe-send -device frame.local -protocol-log send.rlog heart.yaml
package main

import (
	"os"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}
