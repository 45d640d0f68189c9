/*
Package blob implements a compact binary container for a run-length encoded
voxel model, for hosts that load the data at runtime rather than compiling it
in.

The file is the magic "VRLE", a version byte and a flags byte followed by the
body. The body holds the X, Y and Z dimensions as 32-bit values, a 16-bit
palette entry count, 4 bytes per palette entry, a 32-bit stream length and the
run-length encoded stream; all values are little-endian. If bit 0 of the flags
is set the body is a single zstd frame.
*/
package blob

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/vox2rle/palette"
	"github.com/bodgit/vox2rle/rle"
	"github.com/klauspost/compress/zstd"
)

const (
	magic   = "VRLE"
	version = 1

	flagZstd = 1 << 0

	// Extension is the conventional file extension
	Extension = ".vrle"
)

var (
	errMagic   = errors.New("blob: invalid magic")
	errVersion = errors.New("blob: unsupported version")
)

// Model is a run-length encoded voxel model. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Model struct {
	X, Y, Z int
	Palette palette.Palette
	RLE     []byte

	// Compress selects zstd compression of the body when marshalling and
	// reports whether it was used when unmarshalling
	Compress bool
}

func (m *Model) body() ([]byte, error) {
	if len(m.Palette) > palette.MaxColors {
		return nil, &palette.CapacityError{Colors: len(m.Palette)}
	}

	b := new(bytes.Buffer)
	for _, v := range []interface{}{
		uint32(m.X), uint32(m.Y), uint32(m.Z),
		uint16(len(m.Palette)),
	} {
		if err := binary.Write(b, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	if _, err := b.Write(m.Palette.Bytes()); err != nil {
		return nil, err
	}
	if err := binary.Write(b, binary.LittleEndian, uint32(len(m.RLE))); err != nil {
		return nil, err
	}
	if _, err := b.Write(m.RLE); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// MarshalBinary encodes the model into binary form and returns the result
func (m *Model) MarshalBinary() ([]byte, error) {
	body, err := m.body()
	if err != nil {
		return nil, err
	}

	var flags byte
	if m.Compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(body, nil)
		if err := enc.Close(); err != nil {
			return nil, err
		}
		flags |= flagZstd
	}

	out := make([]byte, 0, len(magic)+2+len(body))
	out = append(out, magic...)
	out = append(out, version, flags)
	return append(out, body...), nil
}

// UnmarshalBinary decodes the model from binary form, checking that the
// stream covers exactly X*Y*Z voxels
func (m *Model) UnmarshalBinary(b []byte) error {
	if len(b) < len(magic)+2 || string(b[:len(magic)]) != magic {
		return errMagic
	}
	if b[len(magic)] != version {
		return errVersion
	}
	flags := b[len(magic)+1]
	body := b[len(magic)+2:]

	if flags&flagZstd != 0 {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return err
		}
		defer dec.Close()
		if body, err = dec.DecodeAll(body, nil); err != nil {
			return fmt.Errorf("blob: %w", err)
		}
	}

	r := bytes.NewReader(body)

	var dims [3]uint32
	var entries uint16
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return truncated(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &entries); err != nil {
		return truncated(err)
	}
	if int(entries) > palette.MaxColors {
		return &palette.CapacityError{Colors: int(entries)}
	}

	pb := make([]byte, int(entries)*4)
	if _, err := io.ReadFull(r, pb); err != nil {
		return truncated(err)
	}
	p, err := palette.FromBytes(pb)
	if err != nil {
		return err
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return truncated(err)
	}
	if int64(n) > int64(r.Len()) {
		return truncated(io.ErrUnexpectedEOF)
	}
	stream := make([]byte, n)
	if _, err := io.ReadFull(r, stream); err != nil {
		return truncated(err)
	}

	if err := rle.Validate(stream, int(dims[0])*int(dims[1])*int(dims[2])); err != nil {
		return err
	}

	*m = Model{
		X:        int(dims[0]),
		Y:        int(dims[1]),
		Z:        int(dims[2]),
		Palette:  p,
		RLE:      stream,
		Compress: flags&flagZstd != 0,
	}
	return nil
}

func truncated(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("blob: truncated: %w", err)
}
