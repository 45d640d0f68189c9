/*
Package palette reduces the 256 entry .vox color table to the colors a model
actually uses.

Entry 0 of a reduced palette is always transparent black and stands for an
empty voxel. The remaining entries are in the order they are first met when
walking the volume along x, then y, then z.
*/
package palette

import (
	"fmt"
	"image/color"

	"github.com/bodgit/vox2rle/vox"
)

// MaxColors is the most entries a palette can hold, including the empty
// entry, while still being indexed by a byte.
const MaxColors = 256

// Empty is the color of palette entry 0
var Empty = color.RGBA{0, 0, 0, 0}

// Palette is an ordered table of colors indexed by voxel value.
type Palette []color.RGBA

// Bytes returns the palette as 4 bytes per entry in R, G, B, A order
func (p Palette) Bytes() []byte {
	b := make([]byte, 0, len(p)*4)
	for _, c := range p {
		b = append(b, c.R, c.G, c.B, c.A)
	}
	return b
}

// FromBytes is the inverse of Palette.Bytes.
func FromBytes(b []byte) (Palette, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("palette: %d bytes is not a multiple of 4", len(b))
	}
	p := make(Palette, len(b)/4)
	for i := range p {
		p[i] = color.RGBA{b[i*4], b[i*4+1], b[i*4+2], b[i*4+3]}
	}
	return p, nil
}

// CapacityError is returned when a palette would need more than MaxColors
// entries.
type CapacityError struct {
	Colors int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("palette: %d colors exceeds the maximum of %d", e.Colors, MaxColors)
}

// Reduce returns a copy of v where every non-zero value is replaced by its
// index in the returned palette. v is left untouched.
func Reduce(v *vox.Volume, raw *vox.RawPalette) (*vox.Volume, Palette, error) {
	out := v.Clone()
	p := Palette{Empty}

	// Reduced index assigned to each raw value, 0 if not seen yet
	var assigned [vox.PaletteSize]int

	for x := 0; x < v.X; x++ {
		for y := 0; y < v.Y; y++ {
			for z := 0; z < v.Z; z++ {
				i := v.Index(x, y, z)
				c := v.Voxels[i]
				if c == 0 {
					continue
				}
				if assigned[c] == 0 {
					if len(p) >= MaxColors {
						return nil, nil, &CapacityError{Colors: len(p) + 1}
					}
					assigned[c] = len(p)
					p = append(p, raw.Color(c))
				}
				out.Voxels[i] = byte(assigned[c])
			}
		}
	}

	return out, p, nil
}
