package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const fileVersion = 150

type encoder struct {
	w io.Writer
}

func (e *encoder) chunk(id string, content []byte, children []byte) error {
	var hdr [12]byte
	copy(hdr[:4], id)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(content)))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(children)))
	for _, b := range [][]byte{hdr[:], content, children} {
		if _, err := e.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encode(v *Volume, p *RawPalette) error {
	var children bytes.Buffer
	child := encoder{w: &children}

	size := make([]byte, 12)
	binary.LittleEndian.PutUint32(size[0:], uint32(v.X))
	binary.LittleEndian.PutUint32(size[4:], uint32(v.Y))
	binary.LittleEndian.PutUint32(size[8:], uint32(v.Z))
	if err := child.chunk(chunkSize, size, nil); err != nil {
		return err
	}

	xyzi := make([]byte, 4)
	var num uint32
	for y := 0; y < v.Y; y++ {
		for x := 0; x < v.X; x++ {
			for z := 0; z < v.Z; z++ {
				if c := v.At(x, y, z); c != 0 {
					xyzi = append(xyzi, byte(x), byte(y), byte(z), c)
					num++
				}
			}
		}
	}
	binary.LittleEndian.PutUint32(xyzi, num)
	if err := child.chunk(chunkXYZI, xyzi, nil); err != nil {
		return err
	}

	if p != nil {
		rgba := make([]byte, 0, PaletteSize*4)
		for _, c := range p {
			rgba = append(rgba, c.R, c.G, c.B, c.A)
		}
		if err := child.chunk(chunkRGBA, rgba, nil); err != nil {
			return err
		}
	}

	var hdr [8]byte
	copy(hdr[:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:], fileVersion)
	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}

	return e.chunk(chunkMain, nil, children.Bytes())
}

// Encode writes v and p to w as a single model .vox file. A nil palette
// omits the RGBA chunk.
func Encode(w io.Writer, v *Volume, p *RawPalette) error {
	if v.X > maxDimension || v.Y > maxDimension || v.Z > maxDimension {
		return errors.New("vox: volume is too big")
	}
	e := encoder{w: w}
	return e.encode(v, p)
}
