// Package imagedump persists sensor frames to disk as PNG files under
// <dir>/episode_NNN/camera_NNN/image_NNNNN.png.
package imagedump

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/simdrive/simdrive/internal/sim"
)

// Writer saves sensor frames beneath a base directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Save encodes one sensor frame as a PNG. The frame's Data must be a
// row-major RGBA buffer matching its declared dimensions.
func (w *Writer) Save(episode, camera, frame int, sf *sim.SensorFrame) error {
	if sf.Width <= 0 || sf.Height <= 0 {
		return fmt.Errorf("sensor frame %q has invalid dimensions %dx%d", sf.Name, sf.Width, sf.Height)
	}
	if want := sf.Width * sf.Height * 4; len(sf.Data) != want {
		return fmt.Errorf("sensor frame %q has %d data bytes, want %d", sf.Name, len(sf.Data), want)
	}

	path := w.Path(episode, camera, frame)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	img := &image.RGBA{
		Pix:    sf.Data,
		Stride: sf.Width * 4,
		Rect:   image.Rect(0, 0, sf.Width, sf.Height),
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// SaveAll persists every sensor frame of one simulation frame.
func (w *Writer) SaveAll(episode, frame int, frames []sim.SensorFrame) error {
	for i := range frames {
		if err := w.Save(episode, i, frame, &frames[i]); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the on-disk location for one image.
func (w *Writer) Path(episode, camera, frame int) string {
	return filepath.Join(
		w.dir,
		fmt.Sprintf("episode_%03d", episode),
		fmt.Sprintf("camera_%03d", camera),
		fmt.Sprintf("image_%05d.png", frame),
	)
}
