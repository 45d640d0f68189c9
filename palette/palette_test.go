package palette

import (
	"errors"
	"image/color"
	"testing"

	"github.com/bodgit/vox2rle/vox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceExample(t *testing.T) {
	v := vox.NewVolume(2, 1, 1)
	v.Voxels = []byte{0, 5}
	raw := new(vox.RawPalette)
	raw[4] = color.RGBA{10, 20, 30, 255}

	out, p, err := Reduce(v, raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, out.Voxels)
	assert.Equal(t, Palette{{0, 0, 0, 0}, {10, 20, 30, 255}}, p)

	// Input is untouched
	assert.Equal(t, []byte{0, 5}, v.Voxels)
}

func TestReduceScanOrder(t *testing.T) {
	v := vox.NewVolume(2, 2, 2)
	raw := new(vox.RawPalette)
	for i := range raw {
		raw[i] = color.RGBA{byte(i + 1), 0, 0, 255}
	}

	// Storage order meets 3 before 9 but x is the outer loop
	v.Set(0, 1, 0, 9)
	v.Set(1, 0, 0, 3)
	v.Set(0, 0, 1, 7)
	v.Set(1, 1, 1, 7)

	out, p, err := Reduce(v, raw)
	require.NoError(t, err)

	assert.Equal(t, Palette{Empty, raw.Color(7), raw.Color(9), raw.Color(3)}, p)
	assert.Equal(t, byte(1), out.At(0, 0, 1))
	assert.Equal(t, byte(2), out.At(0, 1, 0))
	assert.Equal(t, byte(3), out.At(1, 0, 0))
	assert.Equal(t, byte(1), out.At(1, 1, 1))
	assert.Equal(t, byte(0), out.At(0, 0, 0))
}

func TestReduceDeterministic(t *testing.T) {
	v := vox.NewVolume(4, 3, 5)
	raw := new(vox.RawPalette)
	for i := range v.Voxels {
		v.Voxels[i] = byte((i * 37) % 11)
	}
	for i := range raw {
		raw[i] = color.RGBA{byte(i), byte(255 - i), byte(i * 3), 255}
	}

	out1, p1, err := Reduce(v, raw)
	require.NoError(t, err)
	out2, p2, err := Reduce(v, raw)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, out1, out2)
	assert.Len(t, p1, 11)
	assert.Equal(t, Empty, p1[0])

	for i, c := range v.Voxels {
		if c == 0 {
			assert.Zero(t, out1.Voxels[i])
		} else {
			assert.NotZero(t, out1.Voxels[i])
			assert.Equal(t, raw.Color(c), p1[out1.Voxels[i]])
		}
	}
}

func TestReduceAllColors(t *testing.T) {
	v := vox.NewVolume(1, 1, 255)
	for i := range v.Voxels {
		v.Voxels[i] = byte(255 - i)
	}
	_, p, err := Reduce(v, new(vox.RawPalette))
	require.NoError(t, err)
	assert.Len(t, p, MaxColors)
}

func TestCapacityError(t *testing.T) {
	var err error = &CapacityError{Colors: 257}
	var ce *CapacityError
	assert.True(t, errors.As(err, &ce))
	assert.EqualError(t, err, "palette: 257 colors exceeds the maximum of 256")
}

func TestBytes(t *testing.T) {
	p := Palette{Empty, {1, 2, 3, 4}}
	b := p.Bytes()
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, b)

	q, err := FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, p, q)

	_, err = FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestQuantize(t *testing.T) {
	v := vox.NewVolume(1, 1, 9)
	v.Voxels = []byte{0, 1, 2, 3, 4, 1, 2, 3, 4}
	p := Palette{
		Empty,
		{250, 0, 0, 255},
		{0, 0, 250, 255},
		{255, 5, 5, 255},
		{5, 5, 255, 255},
	}

	out, q, err := Quantize(v, p, 3)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(q), 3)
	assert.Equal(t, Empty, q[0])
	assert.Zero(t, out.Voxels[0])
	for _, c := range out.Voxels[1:] {
		assert.NotZero(t, c)
		assert.Less(t, int(c), len(q))
	}
	assert.Equal(t, out.Voxels[1], out.Voxels[3])
	assert.Equal(t, out.Voxels[2], out.Voxels[4])
	assert.NotEqual(t, out.Voxels[1], out.Voxels[2])

	red, blue := q[out.Voxels[1]], q[out.Voxels[2]]
	assert.Greater(t, red.R, uint8(200))
	assert.Less(t, red.B, uint8(50))
	assert.Greater(t, blue.B, uint8(200))
	assert.Less(t, blue.R, uint8(50))
}

func TestFarthestSeeds(t *testing.T) {
	colors := []weighted{
		{1, color.RGBA{250, 0, 0, 255}, 2},
		{2, color.RGBA{0, 0, 250, 255}, 2},
		{3, color.RGBA{255, 5, 5, 255}, 2},
		{4, color.RGBA{5, 5, 255, 255}, 2},
	}

	seeds := farthestSeeds(colors, 2)
	assert.Equal(t, []color.RGBA{{250, 0, 0, 255}, {5, 5, 255, 255}}, seeds)

	// Asking for more seeds than distinct colors stops early
	assert.Len(t, farthestSeeds(colors[:1], 3), 1)
}

func TestRefineEmptyCluster(t *testing.T) {
	colors := []weighted{
		{1, color.RGBA{250, 0, 0, 255}, 2},
		{2, color.RGBA{0, 0, 250, 255}, 2},
		{3, color.RGBA{255, 5, 5, 255}, 2},
		{4, color.RGBA{5, 5, 255, 255}, 2},
	}

	blue := color.RGBA{0, 0, 250, 255}
	centers, assign, cost := refine(colors, []color.RGBA{blue, blue})
	require.Len(t, centers, 2)
	require.Len(t, assign, 4)

	assert.Equal(t, assign[0], assign[2])
	assert.Equal(t, assign[1], assign[3])
	assert.NotEqual(t, assign[0], assign[1])
	assert.Less(t, cost, int64(1000))
}

func TestQuantizeFits(t *testing.T) {
	v := vox.NewVolume(1, 1, 2)
	v.Voxels = []byte{0, 1}
	p := Palette{Empty, {1, 2, 3, 255}}

	out, q, err := Quantize(v, p, 16)
	require.NoError(t, err)
	assert.Same(t, v, out)
	assert.Equal(t, p, q)

	_, _, err = Quantize(v, p, 1)
	assert.Error(t, err)
}
