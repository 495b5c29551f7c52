package imagedump

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdrive/simdrive/internal/sim"
)

func rgbaFrame(name string, w, h int) sim.SensorFrame {
	data := make([]byte, w*h*4)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return sim.SensorFrame{Name: name, Width: w, Height: h, Data: data}
}

func TestWriterPath(t *testing.T) {
	t.Parallel()

	w := NewWriter("_images")
	assert.Equal(t,
		filepath.Join("_images", "episode_002", "camera_001", "image_00037.png"),
		w.Path(2, 1, 37))
}

func TestWriterSave(t *testing.T) {
	t.Parallel()

	t.Run("writes a decodable png at the documented path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		w := NewWriter(dir)
		frame := rgbaFrame("CameraRGB", 4, 3)

		require.NoError(t, w.Save(0, 0, 5, &frame))

		f, err := os.Open(filepath.Join(dir, "episode_000", "camera_000", "image_00005.png"))
		require.NoError(t, err)
		defer f.Close()

		img, err := png.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, 4, img.Bounds().Dx())
		assert.Equal(t, 3, img.Bounds().Dy())
	})

	t.Run("rejects a frame whose buffer does not match its dimensions", func(t *testing.T) {
		t.Parallel()

		w := NewWriter(t.TempDir())
		frame := sim.SensorFrame{Name: "bad", Width: 4, Height: 4, Data: []byte{1, 2, 3}}
		require.Error(t, w.Save(0, 0, 0, &frame))
	})

	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		t.Parallel()

		w := NewWriter(t.TempDir())
		frame := sim.SensorFrame{Name: "bad", Width: 0, Height: 600}
		require.Error(t, w.Save(0, 0, 0, &frame))
	})
}

func TestWriterSaveAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir)
	frames := []sim.SensorFrame{
		rgbaFrame("CameraRGB", 2, 2),
		rgbaFrame("CameraDepth", 2, 2),
	}

	require.NoError(t, w.SaveAll(1, 9, frames))

	for camera := 0; camera < 2; camera++ {
		_, err := os.Stat(w.Path(1, camera, 9))
		assert.NoError(t, err)
	}
}
