// Command retroframe-sim runs a simulated RetroFrame device.
//
// The simulator serves the device REST API, keeps uploaded frame buffers in
// memory and logs every request. It can advertise itself over mDNS so that
// retroframe-send -discover finds it.
//
// Usage:
//
//	retroframe-sim [flags]
//
// Flags:
//
//	-port int          HTTP server port (default 8080)
//	-rows int          Panel rows; with -cols, enforces the frame size (default 0)
//	-cols int          Panel columns (default 0)
//	-advertise         Advertise the simulator over mDNS
//	-name string       mDNS instance name (default "RetroFrame Simulator")
//	-interface string  Network interface for mDNS (default: all)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-version           Show version information
//
// Examples:
//
//	# 16x16 panel, discoverable on the LAN
//	retroframe-sim -rows 16 -cols 16 -advertise
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retroframe/retroframe-go/pkg/config"
	"github.com/retroframe/retroframe-go/pkg/discovery"
	"github.com/retroframe/retroframe-go/pkg/simulator"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	port        = flag.Int("port", 8080, "HTTP server port")
	rows        = flag.Int("rows", 0, "Panel rows; with -cols, enforces the frame size")
	cols        = flag.Int("cols", 0, "Panel columns")
	advertise   = flag.Bool("advertise", false, "Advertise the simulator over mDNS")
	name        = flag.String("name", "RetroFrame Simulator", "mDNS instance name")
	iface       = flag.String("interface", "", "Network interface for mDNS (default: all)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("retroframe-sim %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	level, err := config.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *rows < 0 || *cols < 0 {
		fmt.Fprintln(os.Stderr, "Error: -rows and -cols must not be negative")
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dev := simulator.New(simulator.Config{
		CellCount: *rows * *cols,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           dev,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("simulator listening", "port", *port, "rows", *rows, "cols", *cols)

	if *advertise {
		stop, err := discovery.Advertise(discovery.Info{
			Name:     *name,
			Port:     *port,
			Rows:     *rows,
			Columns:  *cols,
			Firmware: "sim-" + Version,
		}, discovery.AdvertiserConfig{Interface: *iface})
		if err != nil {
			logger.Warn("mDNS advertising failed", "error", err)
		} else {
			defer stop()
			logger.Info("advertising", "service", discovery.ServiceType, "name", *name)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
			return 1
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}

	status := dev.Status()
	logger.Info("final state", "buffers", status.Buffers, "shows", status.Shows)
	return 0
}
