package render

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vesseltrace/internal/fsutil"
	"github.com/banshee-data/vesseltrace/internal/testutil"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

func sampleRegistry(t *testing.T) (*registry.Registry, registry.BranchID) {
	t.Helper()
	reg := registry.New(5, 10)
	id := testutil.FillBranch(t, reg, 1, 3, testutil.Square(2, 2, 4))
	reg.AddOverlay(2, testutil.Square(10, 10, 2))
	return reg, id
}

func TestRenderer_Branch(t *testing.T) {
	t.Parallel()

	reg, id := sampleRegistry(t)
	r := NewRenderer(geometry.Planar{}, 16, 16)

	v := r.Branch(reg, id)
	require.NotNil(t, v)
	assert.Equal(t, 5, v.Depth())
	lo, hi := v.Extent()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)
	assert.Equal(t, 3*25, v.Count())
	assert.True(t, v.At(4, 4, 2))
	assert.False(t, v.At(4, 4, 0))
	assert.False(t, v.At(4, 4, 7))

	assert.Nil(t, r.Branch(reg, 42))
	assert.Len(t, r.Branches(reg), 1)
}

func TestRenderer_Overlay(t *testing.T) {
	t.Parallel()

	reg, _ := sampleRegistry(t)
	v := NewRenderer(geometry.Planar{}, 16, 16).Overlay(reg)
	assert.Equal(t, 9, v.Count())
	assert.True(t, v.At(11, 11, 2))
}

func TestWriteSlices(t *testing.T) {
	t.Parallel()

	reg, id := sampleRegistry(t)
	v := NewRenderer(geometry.Planar{}, 16, 16).Branch(reg, id)
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteSlices(fs, "out/branch_1", v))

	names, err := fs.ReadDir("out/branch_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"slice_0000.png", "slice_0001.png", "slice_0002.png", "slice_0003.png", "slice_0004.png"}, names)

	data, err := fs.ReadFile(filepath.Join("out/branch_1", SliceName(2)))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	g, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(255), g.GrayAt(4, 4).Y)
	assert.Equal(t, uint8(0), g.GrayAt(12, 12).Y)
}
