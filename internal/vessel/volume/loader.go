package volume

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/banshee-data/vesseltrace/internal/fsutil"
)

// ErrNoSlices is returned when a directory holds no readable slice images.
var ErrNoSlices = errors.New("volume: no slice images found")

// Loader reads slice stacks through a FileSystem.
type Loader struct {
	FS fsutil.FileSystem
}

// NewLoader returns a loader on the host filesystem.
func NewLoader() *Loader {
	return &Loader{FS: fsutil.OSFileSystem{}}
}

// LoadDir reads every .png, .tif and .tiff file in dir, in lexical name
// order, as depths 0..n-1. All slices must share one size.
func (l *Loader) LoadDir(dir string) (*Volume, error) {
	names, err := l.FS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list slices in %s: %w", dir, err)
	}

	v := &Volume{}
	for _, name := range names {
		decode := decoderFor(name)
		if decode == nil {
			continue
		}
		s, err := l.loadSlice(filepath.Join(dir, name), decode)
		if err != nil {
			return nil, err
		}
		if len(v.Slices) > 0 {
			w, h := v.Size()
			if s.Width != w || s.Height != h {
				return nil, fmt.Errorf("slice %s is %dx%d, want %dx%d", name, s.Width, s.Height, w, h)
			}
		}
		v.Slices = append(v.Slices, s)
	}
	if len(v.Slices) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSlices)
	}
	return v, nil
}

func decoderFor(name string) func(io.Reader) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Decode
	case ".tif", ".tiff":
		return tiff.Decode
	}
	return nil
}

func (l *Loader) loadSlice(path string, decode func(io.Reader) (image.Image, error)) (*Slice, error) {
	r, err := l.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open slice %s: %w", path, err)
	}
	defer r.Close()

	img, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode slice %s: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage converts an image to a slice of grey intensities. 16-bit grey
// images keep their full range; everything else maps to 0..255.
func FromImage(img image.Image) *Slice {
	b := img.Bounds()
	s := NewSlice(b.Dx(), b.Dy())
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			var v float64
			switch g := c.(type) {
			case color.Gray:
				v = float64(g.Y)
			case color.Gray16:
				v = float64(g.Y)
			default:
				v = float64(color.GrayModel.Convert(c).(color.Gray).Y)
			}
			s.Pix[y*s.Width+x] = v
		}
	}
	return s
}

// ToImage renders s as an 8-bit grey image, clamping to 0..255.
func ToImage(s *Slice) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for i, v := range s.Pix {
		img.Pix[i] = uint8(min(max(v, 0), 255))
	}
	return img
}
