package volume

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/banshee-data/vesseltrace/internal/fsutil"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func greyImage(w, h int, fill uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

func TestPhantom(t *testing.T) {
	t.Parallel()

	v := Phantom(20, 20, 5, Tube{
		From: geometry.PointF{X: 10, Y: 10}, To: geometry.PointF{X: 10, Y: 10},
		FromDepth: 0, ToDepth: 4, Radius: 3, Intensity: 200,
	})
	require.Equal(t, 5, v.Depth())
	s := v.Slice(2)
	assert.Equal(t, 200.0, s.At(10, 10))
	assert.Equal(t, 200.0, s.At(13, 10))
	assert.Equal(t, 0.0, s.At(14, 10))
	assert.Nil(t, v.Slice(5))
	assert.Nil(t, v.Slice(-1))

	w, h := v.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)
}

func TestTubeCenterAt(t *testing.T) {
	t.Parallel()
	tube := Tube{
		From: geometry.PointF{X: 0, Y: 0}, To: geometry.PointF{X: 10, Y: 20},
		FromDepth: 10, ToDepth: 0,
	}

	c, ok := tube.CenterAt(5)
	require.True(t, ok)
	assert.InDelta(t, 5, c.X, 1e-9)
	assert.InDelta(t, 10, c.Y, 1e-9)

	_, ok = tube.CenterAt(11)
	assert.False(t, ok)
}

func TestLoaderLoadDir(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/stack/slice_001.png", encodePNG(t, greyImage(4, 3, 20)))
	mfs.WriteFile("/stack/slice_000.png", encodePNG(t, greyImage(4, 3, 10)))
	mfs.WriteFile("/stack/notes.txt", []byte("ignored"))

	var tif bytes.Buffer
	require.NoError(t, tiff.Encode(&tif, greyImage(4, 3, 30), nil))
	mfs.WriteFile("/stack/slice_002.tif", tif.Bytes())

	v, err := (&Loader{FS: mfs}).LoadDir("/stack")
	require.NoError(t, err)
	require.Equal(t, 3, v.Depth())
	assert.Equal(t, 10.0, v.Slice(0).At(0, 0))
	assert.Equal(t, 20.0, v.Slice(1).At(3, 2))
	assert.Equal(t, 30.0, v.Slice(2).At(1, 1))
}

func TestLoaderErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		mfs := fsutil.NewMemoryFileSystem()
		require.NoError(t, mfs.MkdirAll("/empty", 0o755))
		_, err := (&Loader{FS: mfs}).LoadDir("/empty")
		assert.ErrorIs(t, err, ErrNoSlices)
	})

	t.Run("size mismatch", func(t *testing.T) {
		t.Parallel()
		mfs := fsutil.NewMemoryFileSystem()
		mfs.WriteFile("/s/a.png", encodePNG(t, greyImage(4, 4, 1)))
		mfs.WriteFile("/s/b.png", encodePNG(t, greyImage(5, 4, 1)))
		_, err := (&Loader{FS: mfs}).LoadDir("/s")
		assert.ErrorContains(t, err, "5x4")
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()
		mfs := fsutil.NewMemoryFileSystem()
		mfs.WriteFile("/s/a.png", []byte("not a png"))
		_, err := (&Loader{FS: mfs}).LoadDir("/s")
		assert.ErrorContains(t, err, "decode slice")
	})

	t.Run("missing dir", func(t *testing.T) {
		t.Parallel()
		_, err := (&Loader{FS: fsutil.NewMemoryFileSystem()}).LoadDir("/nope")
		assert.Error(t, err)
	})
}

func TestImageRoundTrip(t *testing.T) {
	t.Parallel()

	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(1, 0, color.Gray16{Y: 1000})
	s := FromImage(img)
	assert.Equal(t, 1000.0, s.At(1, 0), "16-bit range preserved")

	s.Set(0, 0, 300)
	s.Set(5, 5, 1) // ignored
	out := ToImage(s)
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}
