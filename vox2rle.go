/*
Package vox2rle converts MagicaVoxel .vox models into a compact run-length
encoded form, emitted either as generated C++ code or as a binary blob.

A conversion decodes the model, reduces its palette to the colors actually
used, optionally limits that palette to a color budget and finally run-length
encodes the voxels.
*/
package vox2rle

import (
	"log"

	"github.com/bodgit/vox2rle/artifact"
	"github.com/bodgit/vox2rle/cache"
	"github.com/bodgit/vox2rle/config"
	"github.com/bodgit/vox2rle/palette"
	"github.com/bodgit/vox2rle/rle"
	"github.com/bodgit/vox2rle/vox"
)

// Importer runs conversions using a fixed configuration.
type Importer struct {
	cfg    config.Config
	db     *cache.DB
	logger *log.Logger
}

// New returns an Importer. db may be nil to disable the manifest.
func New(cfg config.Config, db *cache.DB, logger *log.Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// Result holds each stage of a conversion.
type Result struct {
	Model   *vox.Model
	Volume  *vox.Volume
	Palette palette.Palette
	RLE     []byte
}

// Data returns the parts of the result that end up in generated code
func (r *Result) Data() *artifact.Data {
	return &artifact.Data{
		X:       r.Volume.X,
		Y:       r.Volume.Y,
		Z:       r.Volume.Z,
		Palette: r.Palette,
		RLE:     r.RLE,
	}
}

// Convert decodes file and runs it through palette reduction and run-length
// encoding.
func (i *Importer) Convert(file string) (*Result, error) {
	m, err := vox.DecodeFile(file)
	if err != nil {
		return nil, err
	}
	i.logger.Printf("VOX file \"%s\" version=%d\n", file, m.Version)
	i.logger.Printf("Loaded chunks %v\n", m.Chunks)
	i.logger.Printf("Size: %dx%dx%d\n", m.Volume.X, m.Volume.Y, m.Volume.Z)

	r := &Result{Model: m}

	if r.Volume, r.Palette, err = palette.Reduce(m.Volume, m.Palette); err != nil {
		return nil, err
	}
	i.logger.Printf("Palette reduced to %d entries\n", len(r.Palette))

	if len(r.Palette) > i.cfg.MaxColors {
		if r.Volume, r.Palette, err = palette.Quantize(r.Volume, r.Palette, i.cfg.MaxColors); err != nil {
			return nil, err
		}
		i.logger.Printf("Palette quantized to %d entries\n", len(r.Palette))
	}

	r.RLE = rle.Encode(r.Volume.Voxels)
	i.logger.Printf("RLE encoding reduced %d voxels to %d bytes\n", r.Volume.Len(), len(r.RLE))

	return r, nil
}
