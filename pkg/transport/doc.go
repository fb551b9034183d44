// Package transport provides the request/response transport to a RetroFrame
// display device.
//
// The device exposes a small REST API:
//
//	DELETE /api/buffers      clear all stored frame buffers
//	POST   /api/buffers      append one frame buffer (raw bytes, Content-Type: data/binary)
//	POST   /api/show/image   start playback ({"delay": <ms>}, Content-Type: application/json)
//
// Playback order on the device is the order in which buffers arrive. The
// device carries no frame index, so callers must issue uploads one at a time.
//
// # Timeouts
//
// Client applies ClientConfig.Timeout to every request. Callers may
// additionally bound a request with the context they pass in.
package transport
