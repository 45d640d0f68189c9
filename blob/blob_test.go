package blob

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/vox2rle/palette"
	"github.com/bodgit/vox2rle/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func model(compress bool) *Model {
	return &Model{
		X:        10,
		Y:        10,
		Z:        3,
		Palette:  palette.Palette{palette.Empty, {10, 20, 30, 255}},
		RLE:      rle.Encode(append(bytes.Repeat([]byte{0}, 200), bytes.Repeat([]byte{1}, 100)...)),
		Compress: compress,
	}
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		in := model(compress)
		b, err := in.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, magic, string(b[:4]))

		out := new(Model)
		require.NoError(t, out.UnmarshalBinary(b))
		assert.Equal(t, in, out)
	}
}

func TestLayout(t *testing.T) {
	m := &Model{X: 2, Y: 1, Z: 1, Palette: palette.Palette{palette.Empty, {10, 20, 30, 255}}, RLE: []byte{1, 0, 1, 1}}
	b, err := m.MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		'V', 'R', 'L', 'E', 1, 0,
		2, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0,
		2, 0,
		0, 0, 0, 0, 10, 20, 30, 255,
		4, 0, 0, 0,
		1, 0, 1, 1,
	}
	assert.Equal(t, want, b)
}

func TestUnmarshalErrors(t *testing.T) {
	good, err := model(false).MarshalBinary()
	require.NoError(t, err)

	m := new(Model)
	assert.Equal(t, errMagic, m.UnmarshalBinary([]byte("VOX \x00\x00")))
	assert.Equal(t, errVersion, m.UnmarshalBinary([]byte("VRLE\x02\x00")))
	assert.Error(t, m.UnmarshalBinary(good[:len(good)-1]))
	assert.Error(t, m.UnmarshalBinary(good[:10]))
	assert.Error(t, m.UnmarshalBinary([]byte("VRLE\x01\x01garbage")))

	// Stream no longer covers the volume
	bad := append([]byte(nil), good...)
	bad[6] = 11
	var le *rle.LengthError
	assert.True(t, errors.As(m.UnmarshalBinary(bad), &le))
}
