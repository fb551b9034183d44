// Package animation holds the ordered frames of one animation together with
// the grid dimensions they share, and loads animations from YAML or JSON
// documents.
package animation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/retroframe/retroframe-go/pkg/framebuffer"
)

var (
	// ErrNoGrid is returned when the grid has no cells.
	ErrNoGrid = errors.New("grid dimensions must be positive")

	// ErrCellCount is returned when a frame's length differs from rows*columns.
	ErrCellCount = errors.New("frame cell count does not match grid")
)

// Animation is an ordered sequence of frames. Frame order is playback order.
type Animation struct {
	Rows    int                 `yaml:"rows"`
	Columns int                 `yaml:"columns"`
	Frames  []framebuffer.Frame `yaml:"frames"`
}

// New builds an animation over a rows x columns grid.
func New(rows, columns int, frames ...framebuffer.Frame) Animation {
	return Animation{Rows: rows, Columns: columns, Frames: frames}
}

// CellCount returns rows*columns.
func (a Animation) CellCount() int {
	return a.Rows * a.Columns
}

// Len returns the number of frames.
func (a Animation) Len() int {
	return len(a.Frames)
}

// Validate checks that the grid is non-empty and that every frame has exactly
// CellCount cells.
func (a Animation) Validate() error {
	if a.Rows <= 0 || a.Columns <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrNoGrid, a.Rows, a.Columns)
	}
	want := a.CellCount()
	for i, f := range a.Frames {
		if len(f) != want {
			return fmt.Errorf("frame %d: %w: got %d cells, want %d", i, ErrCellCount, len(f), want)
		}
	}
	return nil
}

// Parse decodes an animation document. JSON is accepted as well since it is a
// subset of YAML. Null cells decode to empty strings (no fill).
func Parse(data []byte) (Animation, error) {
	var a Animation
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Animation{}, fmt.Errorf("parse animation: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Animation{}, err
	}
	return a, nil
}

// Load reads and parses an animation file.
func Load(path string) (Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Animation{}, err
	}
	return Parse(data)
}

// Save writes the animation as YAML.
func Save(path string, a Animation) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
