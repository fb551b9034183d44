package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures Browse.
type BrowserConfig struct {
	// Timeout bounds the browse when ctx has no deadline
	// (default: DefaultBrowseTimeout).
	Timeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// Browse collects RetroFrame devices until ctx is done or the configured
// timeout passes. Addresses seen on several interfaces are merged into one
// Device per instance name. The result is sorted by instance name.
func Browse(ctx context.Context, config BrowserConfig) ([]Device, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultBrowseTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, clientOptions(config.Interface)...)
	}()

	found := make(map[string]*Device)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			dev := entryToDevice(entry)
			if existing, seen := found[dev.InstanceName]; seen {
				existing.Addresses = mergeAddresses(existing.Addresses, dev.Addresses)
				continue
			}
			found[dev.InstanceName] = &dev

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(found, entry.Instance)

		case err := <-errCh:
			// An error after ctx is done is just the browse winding down.
			if err != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("mdns browse: %w", err)
			}
			errCh = nil

		case <-ctx.Done():
			devices := make([]Device, 0, len(found))
			for _, d := range found {
				devices = append(devices, *d)
			}
			sortDevices(devices)
			return devices, nil
		}
	}
}

// First browses and returns the first device by instance name.
func First(ctx context.Context, config BrowserConfig) (Device, error) {
	devices, err := Browse(ctx, config)
	if err != nil {
		return Device{}, err
	}
	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}
	return devices[0], nil
}

// AdvertiserConfig configures Advertise.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL (default: 120 seconds).
	TTL time.Duration
}

// Advertise registers info as a RetroFrame service. The returned function
// stops advertising.
func Advertise(info Info, config AdvertiserConfig) (stop func(), err error) {
	if info.Name == "" {
		return nil, fmt.Errorf("advertise: device name is required")
	}
	port := info.Port
	if port == 0 {
		port = DefaultPort
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 120 * time.Second
	}

	server, err := zeroconf.Register(
		info.Name,
		ServiceType,
		Domain,
		port,
		EncodeTXT(info),
		interfaces(config.Interface),
		zeroconf.TTL(uint32(ttl.Seconds())),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", ServiceType, err)
	}
	return server.Shutdown, nil
}

func entryToDevice(entry *zeroconf.ServiceEntry) Device {
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)
	return newDevice(entry.Instance, entry.HostName, entry.Port, entry.Text, ips)
}

func clientOptions(name string) []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if ifaces := interfaces(name); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}
	return opts
}

// interfaces returns the named interface, or nil (all interfaces) when name
// is empty or unknown.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
