// Package framebuffer encodes animation frames into the RetroFrame device's
// binary frame-buffer layout.
//
// Each cell becomes four bytes in device channel order: blue, green, red and
// a constant device alpha. The device does not support per-pixel
// transparency, so the normalized alpha of a cell is not transmitted.
package framebuffer

import "github.com/retroframe/retroframe-go/pkg/color"

const (
	// BytesPerCell is the size of one encoded cell.
	BytesPerCell = 4

	// DeviceAlpha is written into the alpha position of every cell.
	DeviceAlpha byte = 1
)

// Frame is one still image: cell color strings in row-major order.
// An empty string is a cell with no fill.
type Frame []string

// CellCount returns the number of cells in the frame.
func (f Frame) CellCount() int {
	return len(f)
}

// EncodedSize returns the buffer length Encode produces for a frame with
// cellCount cells.
func EncodedSize(cellCount int) int {
	return BytesPerCell * cellCount
}

// Encode returns the device frame buffer for f. The result always has
// EncodedSize(len(f)) bytes.
func Encode(f Frame) []byte {
	return EncodeInto(make([]byte, 0, EncodedSize(len(f))), f)
}

// EncodeInto appends the encoding of f to dst and returns the extended slice.
func EncodeInto(dst []byte, f Frame) []byte {
	for _, spec := range f {
		c := color.Normalize(spec)
		dst = append(dst, c.B, c.G, c.R, DeviceAlpha)
	}
	return dst
}
