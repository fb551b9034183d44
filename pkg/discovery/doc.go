// Package discovery finds RetroFrame devices on the local network using
// mDNS/DNS-SD.
//
// Devices advertise the service type _retroframe._tcp in the "local" domain.
// The instance name is the user-friendly device name. TXT records:
//   - rows: grid rows of the panel
//   - cols: grid columns of the panel
//   - fw: firmware version (optional)
//
// Browse collects every device seen before its context ends. Advertise is used
// by the simulator so that tools can be exercised without hardware.
package discovery
