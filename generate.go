package vox2rle

import (
	"os"
	"time"

	"github.com/bodgit/vox2rle/artifact"
	"github.com/bodgit/vox2rle/blob"
	"github.com/bodgit/vox2rle/cache"
)

// Options returns the artifact options with the fingerprint of the current
// settings filled in.
func (i *Importer) Options() artifact.Options {
	o := i.cfg.Artifact
	o.Fingerprint = i.cfg.Fingerprint()
	return o
}

func (i *Importer) upToDate(input string, outputs []string) (bool, error) {
	o := i.Options()

	dirty, err := cache.IsDirty(o.Version, o.Fingerprint, []string{input}, outputs)
	if err != nil || !dirty {
		return !dirty, err
	}

	if i.db == nil {
		return false, nil
	}

	fresh, err := i.db.Fresh(o.Version, o.Fingerprint, input, outputs)
	if err != nil || !fresh {
		return false, err
	}

	// Content is unchanged so bring the timestamps forward to avoid hashing
	// again next time
	now := time.Now()
	for _, file := range outputs {
		if err := os.Chtimes(file, now, now); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Generate writes the header and source artifacts for input unless they are
// already up to date. It reports whether anything was written.
func (i *Importer) Generate(input, header, source string, force bool) (bool, error) {
	outputs := []string{header, source}

	if !force {
		ok, err := i.upToDate(input, outputs)
		if err != nil {
			return false, err
		}
		if ok {
			i.logger.Printf("\"%s\" is up to date\n", input)
			return false, nil
		}
	}

	r, err := i.Convert(input)
	if err != nil {
		return false, err
	}

	o := i.Options()
	if err := artifact.WriteFiles(header, source, r.Data(), o); err != nil {
		return false, err
	}
	i.logger.Printf("Wrote \"%s\" and \"%s\"\n", header, source)

	if i.db != nil {
		if err := i.db.Record(o.Version, o.Fingerprint, input, outputs); err != nil {
			return true, err
		}
	}

	return true, nil
}

// Pack converts input and writes it to output as a binary blob.
func (i *Importer) Pack(input, output string, compress bool) error {
	r, err := i.Convert(input)
	if err != nil {
		return err
	}

	m := &blob.Model{
		X:        r.Volume.X,
		Y:        r.Volume.Y,
		Z:        r.Volume.Z,
		Palette:  r.Palette,
		RLE:      r.RLE,
		Compress: compress,
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, b, 0644); err != nil {
		return err
	}
	i.logger.Printf("Wrote %d bytes to \"%s\"\n", len(b), output)

	return nil
}
