package render

import (
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/banshee-data/vesseltrace/internal/fsutil"
)

// SliceName returns the file name of slice d.
func SliceName(d int) string {
	return fmt.Sprintf("slice_%04d.png", d)
}

// WriteSlices writes every slice of v into dir as 8-bit PNGs, set voxels
// at 255.
func WriteSlices(fs fsutil.FileSystem, dir string, v *Voxels) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for d, s := range v.Slices {
		img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
		for i, p := range s.Pix {
			if p != 0 {
				img.Pix[i] = 255
			}
		}
		path := filepath.Join(dir, SliceName(d))
		if err := writePNG(fs, path, img); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(fs fsutil.FileSystem, path string, img image.Image) error {
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
