package vox

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"os"
)

const (
	chunkMain = "MAIN"
	chunkSize = "SIZE"
	chunkXYZI = "XYZI"
	chunkRGBA = "RGBA"

	maxDimension = 256
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r    io.Reader
	file string

	model   Model
	hasSize bool
	hasRGBA bool
	x, y, z int
}

func (d *decoder) errorf(err error, format string, args ...interface{}) error {
	return &FormatError{
		File:   d.file,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (d *decoder) readHeader() error {
	var tmp [8]byte
	if n, err := io.ReadFull(d.r, tmp[:4]); n < 4 || string(tmp[:4]) != magic {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return err
		}
		return d.errorf(ErrNotVox, "bad magic %q", tmp[:n])
	}
	if err := readFull(d.r, tmp[4:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return d.errorf(err, "truncated version")
	}
	d.model.Version = binary.LittleEndian.Uint32(tmp[4:])
	return nil
}

// readPayload reads exactly n bytes of chunk content without trusting n for
// the allocation size.
func (d *decoder) readPayload(id string, n uint32) ([]byte, error) {
	var b bytes.Buffer
	if _, err := io.CopyN(&b, d.r, int64(n)); err != nil {
		if err != io.EOF {
			return nil, err
		}
		return nil, d.errorf(io.ErrUnexpectedEOF, "truncated %s chunk", id)
	}
	return b.Bytes(), nil
}

func (d *decoder) skip(id string, n uint32) error {
	if _, err := io.CopyN(io.Discard, d.r, int64(n)); err != nil {
		if err != io.EOF {
			return err
		}
		return d.errorf(io.ErrUnexpectedEOF, "truncated %s chunk", id)
	}
	return nil
}

// readChunk reads one chunk and returns false once the stream is exhausted.
func (d *decoder) readChunk(depth int) (bool, error) {
	var tmp [12]byte
	n, err := io.ReadFull(d.r, tmp[:4])
	switch {
	case n == 0 && err == io.EOF:
		return false, nil
	case err == io.ErrUnexpectedEOF:
		return false, d.errorf(err, "truncated chunk header")
	case err != nil:
		return false, err
	}
	if err := readFull(d.r, tmp[4:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return false, err
		}
		return false, d.errorf(err, "truncated chunk header")
	}

	id := string(tmp[:4])
	size := binary.LittleEndian.Uint32(tmp[4:])
	d.model.Chunks = append(d.model.Chunks, id)

	switch id {
	case chunkMain:
		if depth >= maxDepth {
			return false, d.errorf(nil, "chunks nested deeper than %d", maxDepth)
		}
		// MAIN normally has no content, only children
		if err := d.skip(id, size); err != nil {
			return false, err
		}
		for {
			ok, err := d.readChunk(depth + 1)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}
		}
	case chunkSize:
		b, err := d.readPayload(id, size)
		if err != nil {
			return false, err
		}
		if err := d.parseSize(b); err != nil {
			return false, err
		}
	case chunkXYZI:
		b, err := d.readPayload(id, size)
		if err != nil {
			return false, err
		}
		if err := d.parseXYZI(b); err != nil {
			return false, err
		}
	case chunkRGBA:
		b, err := d.readPayload(id, size)
		if err != nil {
			return false, err
		}
		if err := d.parseRGBA(b); err != nil {
			return false, err
		}
	default:
		if err := d.skip(id, size); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (d *decoder) parseSize(b []byte) error {
	if len(b) < 12 {
		return d.errorf(nil, "SIZE chunk is %d bytes, want 12", len(b))
	}
	// Only the first model is loaded, any later sizes describe other models
	if d.model.Volume != nil {
		return nil
	}
	x := binary.LittleEndian.Uint32(b[0:])
	y := binary.LittleEndian.Uint32(b[4:])
	z := binary.LittleEndian.Uint32(b[8:])
	if x > maxDimension || y > maxDimension || z > maxDimension {
		return d.errorf(nil, "size %dx%dx%d exceeds %d", x, y, z, maxDimension)
	}
	d.x, d.y, d.z = int(x), int(y), int(z)
	d.hasSize = true
	return nil
}

func (d *decoder) allocate() error {
	if !d.hasSize {
		return d.errorf(nil, "XYZI chunk before SIZE chunk")
	}
	if d.x == 0 || d.y == 0 || d.z == 0 {
		return d.errorf(nil, "empty size %dx%dx%d", d.x, d.y, d.z)
	}
	d.model.Volume = NewVolume(d.x, d.y, d.z)
	return nil
}

func (d *decoder) parseXYZI(b []byte) error {
	if d.model.Volume == nil {
		if err := d.allocate(); err != nil {
			return err
		}
	}
	if len(b) < 4 {
		return d.errorf(nil, "XYZI chunk is missing voxel count")
	}
	num := binary.LittleEndian.Uint32(b)
	records := b[4:]
	if uint64(num)*4 > uint64(len(records)) {
		return d.errorf(io.ErrUnexpectedEOF, "XYZI chunk declares %d voxels but holds %d", num, len(records)/4)
	}

	v := d.model.Volume
	for i := 0; i < int(num); i++ {
		r := records[i*4 : i*4+4]
		x, y, z, c := int(r[0]), int(r[1]), int(r[2]), r[3]
		if !v.Contains(x, y, z) {
			return d.errorf(nil, "voxel (%d, %d, %d) outside %dx%dx%d", x, y, z, v.X, v.Y, v.Z)
		}
		v.Set(x, y, z, c)
	}
	return nil
}

func (d *decoder) parseRGBA(b []byte) error {
	if len(b) < PaletteSize*4 {
		return d.errorf(nil, "RGBA chunk is %d bytes, want %d", len(b), PaletteSize*4)
	}
	for i := range d.model.Palette {
		d.model.Palette[i] = color.RGBA{b[i*4], b[i*4+1], b[i*4+2], b[i*4+3]}
	}
	d.hasRGBA = true
	return nil
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r
	d.model.Palette = new(RawPalette)

	if err := d.readHeader(); err != nil {
		return err
	}

	for {
		ok, err := d.readChunk(0)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	if d.model.Volume == nil {
		if err := d.allocate(); err != nil {
			if !d.hasSize {
				return d.errorf(nil, "missing SIZE chunk")
			}
			return err
		}
	}

	if !d.hasRGBA {
		for _, c := range d.model.Volume.Voxels {
			if c != 0 {
				return d.errorf(nil, "missing RGBA chunk")
			}
		}
	}

	return nil
}

// Decode reads a .vox stream from r.
func Decode(r io.Reader) (*Model, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return &d.model, nil
}

// DecodeFile opens and decodes the named .vox file. Any FormatError names
// the file.
func DecodeFile(file string) (*Model, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := decoder{file: file}
	if err := d.decode(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	return &d.model, nil
}
