package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/retroframe/retroframe-go/pkg/animation"
	"github.com/retroframe/retroframe-go/pkg/color"
	"github.com/retroframe/retroframe-go/pkg/config"
	"github.com/retroframe/retroframe-go/pkg/discovery"
	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/retroframe"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

var errNoDevice = errors.New("no device address: use -device, -discover or a config file")

type options struct {
	configPath      string
	device          string
	delay           time.Duration
	timeout         time.Duration
	discover        bool
	discoverTimeout time.Duration
	protocolLog     string
	logLevel        string
	dryRun          bool
	showVersion     bool
}

func run(args []string) int {
	return runWith(context.Background(), args, os.Stdout, os.Stderr)
}

func runWith(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("retroframe-send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `retroframe-send - Transmit an animation to a RetroFrame device

Usage:
  retroframe-send [flags] <animation.yaml>

Flags:
`)
		fs.PrintDefaults()
	}

	defaults := config.Default()
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Configuration file (YAML)")
	fs.StringVar(&opts.device, "device", "", "Device address, host[:port]")
	fs.DurationVar(&opts.delay, "delay", defaults.Show.Delay, "Per-frame display time")
	fs.DurationVar(&opts.timeout, "timeout", defaults.Device.Timeout, "Per-request timeout")
	fs.BoolVar(&opts.discover, "discover", false, "Find the device over mDNS")
	fs.DurationVar(&opts.discoverTimeout, "discover-timeout", defaults.Discovery.Timeout, "How long to browse for devices")
	fs.StringVar(&opts.protocolLog, "protocol-log", "", "Write a CBOR capture of every request to file")
	fs.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the frames instead of sending them")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "retroframe-send %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one animation file is required")
		fs.Usage()
		return 1
	}

	cfg, err := resolveConfig(fs, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	anim, err := animation.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.dryRun {
		printFrames(stdout, anim)
		return 0
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := send(ctx, cfg, anim, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Sent %d frames (%dx%d, %s per frame)\n",
		anim.Len(), anim.Rows, anim.Columns, cfg.Show.Delay)
	return 0
}

// resolveConfig layers the config file over the defaults and explicitly set
// flags over both.
func resolveConfig(fs *flag.FlagSet, opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device.Address = opts.device
		case "delay":
			cfg.Show.Delay = opts.delay
		case "timeout":
			cfg.Device.Timeout = opts.timeout
		case "discover":
			cfg.Discovery.Enabled = opts.discover
		case "discover-timeout":
			cfg.Discovery.Timeout = opts.discoverTimeout
		case "protocol-log":
			cfg.Log.ProtocolFile = opts.protocolLog
		case "log-level":
			cfg.Log.Level = opts.logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func send(ctx context.Context, cfg *config.Config, anim animation.Animation, logger *slog.Logger) error {
	addr, err := deviceAddress(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := transport.NewClient(transport.ClientConfig{
		Address: addr,
		Scheme:  cfg.Device.Scheme,
		Timeout: cfg.Device.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	loggers := []rflog.Logger{rflog.NewSlogAdapter(logger)}
	if cfg.Log.ProtocolFile != "" {
		fileLogger, err := rflog.NewFileLogger(cfg.Log.ProtocolFile)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}

	tx, err := retroframe.New(client, retroframe.Config{
		FrameDelay:     cfg.Show.Delay,
		DeviceAddr:     client.BaseURL(),
		Logger:         logger,
		ProtocolLogger: rflog.NewMultiLogger(loggers...),
	})
	if err != nil {
		return err
	}
	return tx.Transmit(ctx, anim)
}

// deviceAddress returns the configured address, browsing for one when
// discovery is enabled and no address is set.
func deviceAddress(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.Device.Address != "" {
		return cfg.Device.Address, nil
	}
	if !cfg.Discovery.Enabled {
		return "", errNoDevice
	}

	logger.Info("browsing for devices", "timeout", cfg.Discovery.Timeout)
	dev, err := discovery.First(ctx, discovery.BrowserConfig{
		Timeout:   cfg.Discovery.Timeout,
		Interface: cfg.Discovery.Interface,
	})
	if err != nil {
		return "", err
	}
	logger.Info("found device", "device", dev.String())
	return dev.Address(), nil
}

// printFrames writes every frame as a grid of normalized colors.
// Cells that encode as transparent black are shown as dots.
func printFrames(w io.Writer, anim animation.Animation) {
	fmt.Fprintf(w, "%dx%d, %d frames\n", anim.Rows, anim.Columns, anim.Len())
	for i, frame := range anim.Frames {
		fmt.Fprintf(w, "\nframe %d\n", i)
		for r := 0; r < anim.Rows; r++ {
			cells := make([]string, anim.Columns)
			for c := range cells {
				rgba := color.Normalize(frame[r*anim.Columns+c])
				if rgba == color.Transparent {
					cells[c] = "   .   "
					continue
				}
				cells[c] = rgba.Hex()
			}
			fmt.Fprintln(w, strings.Join(cells, " "))
		}
	}
}
