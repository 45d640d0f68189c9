/*
Package vox implements a decoder for the MagicaVoxel .vox file format.

A file starts with the four byte magic "VOX " and a little-endian version
number followed by a tree of chunks. Each chunk is a four byte identifier, the
size of its own content and the size of its children, all little-endian. Only
the SIZE, XYZI and RGBA chunks are interpreted; MAIN is descended into and
anything else is skipped over.

Voxels are stored in a flat buffer addressed as z + x*Z + y*Z*X.
*/
package vox

import (
	"errors"
	"fmt"
	"image/color"
)

const (
	magic = "VOX "

	// PaletteSize is the number of entries in a RGBA chunk
	PaletteSize = 256

	maxDepth = 64
)

// ErrNotVox is wrapped by a FormatError when the magic marker is wrong
var ErrNotVox = errors.New("vox: not a VOX file")

// FormatError reports a structurally invalid .vox stream.
type FormatError struct {
	File   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.File != "" {
		return fmt.Sprintf("vox: %s: %s", e.File, msg)
	}
	return "vox: " + msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Volume is a dense X by Y by Z grid of palette indices, 0 meaning empty.
type Volume struct {
	X, Y, Z int
	Voxels  []byte
}

// NewVolume returns a zeroed volume of the given dimensions.
func NewVolume(x, y, z int) *Volume {
	return &Volume{
		X:      x,
		Y:      y,
		Z:      z,
		Voxels: make([]byte, x*y*z),
	}
}

// Len returns the number of cells in the volume
func (v *Volume) Len() int {
	return v.X * v.Y * v.Z
}

// Index returns the offset of (x, y, z) within Voxels.
func (v *Volume) Index(x, y, z int) int {
	return z + x*v.Z + y*v.Z*v.X
}

// At returns the value stored at (x, y, z).
func (v *Volume) At(x, y, z int) byte {
	return v.Voxels[v.Index(x, y, z)]
}

// Set stores c at (x, y, z).
func (v *Volume) Set(x, y, z int, c byte) {
	v.Voxels[v.Index(x, y, z)] = c
}

// Contains reports whether (x, y, z) lies inside the volume
func (v *Volume) Contains(x, y, z int) bool {
	return x >= 0 && x < v.X && y >= 0 && y < v.Y && z >= 0 && z < v.Z
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	dup := *v
	dup.Voxels = append([]byte(nil), v.Voxels...)
	return &dup
}

// RawPalette is the color table from the RGBA chunk. Voxel value c maps to
// entry c-1; value 0 is empty and has no entry.
type RawPalette [PaletteSize]color.RGBA

// Color returns the color for raw voxel value c, which must be non-zero.
func (p *RawPalette) Color(c byte) color.RGBA {
	return p[int(c)-1]
}

// Model is the result of decoding a .vox file.
type Model struct {
	Version uint32
	Volume  *Volume
	Palette *RawPalette

	// Chunks lists the identifiers of every chunk read, in file order
	Chunks []string
}
