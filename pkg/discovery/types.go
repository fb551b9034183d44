package discovery

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of RetroFrame devices.
	ServiceType = "_retroframe._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default device HTTP port.
	DefaultPort = 80

	// DefaultBrowseTimeout bounds Browse when the context has no deadline.
	DefaultBrowseTimeout = 3 * time.Second
)

// TXT record keys.
const (
	TXTKeyRows     = "rows"
	TXTKeyColumns  = "cols"
	TXTKeyFirmware = "fw"
)

// ErrNoDevices is returned by First when nothing was found.
var ErrNoDevices = errors.New("no RetroFrame devices found")

// Device is one discovered RetroFrame device.
type Device struct {
	InstanceName string
	Host         string
	Port         int
	Addresses    []string
	Rows         int
	Columns      int
	Firmware     string
}

// Address returns "ip:port" for the first known address, falling back to the
// host name.
func (d Device) Address() string {
	host := d.Host
	if len(d.Addresses) > 0 {
		host = d.Addresses[0]
	}
	host = strings.TrimSuffix(host, ".")
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// String returns a one-line description.
func (d Device) String() string {
	s := fmt.Sprintf("%s (%s)", d.InstanceName, d.Address())
	if d.Rows > 0 && d.Columns > 0 {
		s += fmt.Sprintf(" %dx%d", d.Rows, d.Columns)
	}
	return s
}

// Info is what a device advertises.
type Info struct {
	Name     string
	Port     int
	Rows     int
	Columns  int
	Firmware string
}

// EncodeTXT returns the TXT strings for info.
func EncodeTXT(info Info) []string {
	txt := make([]string, 0, 3)
	if info.Rows > 0 {
		txt = append(txt, TXTKeyRows+"="+strconv.Itoa(info.Rows))
	}
	if info.Columns > 0 {
		txt = append(txt, TXTKeyColumns+"="+strconv.Itoa(info.Columns))
	}
	if info.Firmware != "" {
		txt = append(txt, TXTKeyFirmware+"="+info.Firmware)
	}
	return txt
}

// parseTXT reads "key=value" strings. Keys without values map to "".
func parseTXT(strs []string) map[string]string {
	txt := make(map[string]string, len(strs))
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// newDevice builds a Device from the parts of an mDNS entry.
func newDevice(instance, host string, port int, text []string, ips []net.IP) Device {
	txt := parseTXT(text)
	rows, _ := strconv.Atoi(txt[TXTKeyRows])
	cols, _ := strconv.Atoi(txt[TXTKeyColumns])

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}

	return Device{
		InstanceName: instance,
		Host:         host,
		Port:         port,
		Addresses:    addrs,
		Rows:         rows,
		Columns:      cols,
		Firmware:     txt[TXTKeyFirmware],
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// sortDevices orders devices by instance name.
func sortDevices(devices []Device) {
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].InstanceName < devices[j].InstanceName
	})
}
