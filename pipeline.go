package vox2rle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	headerExt = ".h"
	sourceExt = ".cc"
	voxExt    = ".vox"
)

// Artifacts returns the header and source paths generated next to a .vox file
// when scanning a directory
func Artifacts(file string) (string, string) {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return base + headerExt, base + sourceExt
}

var errWalkCancelled = errors.New("walk cancelled")

// findModels sends every visible .vox file under base to the returned
// channel. The walk result is sent to the error channel before the file
// channel is closed.
func (i *Importer) findModels(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || filepath.Ext(file) != voxExt {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errWalkCancelled
			}

			return nil
		})
	}()
	return out, errc
}

// generateModels converts files until the channel closes, the context is
// cancelled or a conversion fails
func (i *Importer) generateModels(ctx context.Context, files <-chan string, force bool) error {
	for file := range files {
		if ctx.Err() != nil {
			return nil
		}
		header, source := Artifacts(file)
		if _, err := i.Generate(file, header, source, force); err != nil {
			return err
		}
	}
	return nil
}

// Scan walks path and generates artifacts next to every .vox file found. Each
// model is converted independently. The first failure stops the walk and is
// returned once every model already being converted has been written.
func (i *Importer) Scan(path string, force bool) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, walkErr := i.findModels(ctx, dir)

	workers := runtime.NumCPU()
	failed := make(chan error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go func() {
			defer wg.Done()
			if err := i.generateModels(ctx, files, force); err != nil {
				failed <- err
				cancel()
			}
		}()
	}
	wg.Wait()
	close(failed)

	// A failed conversion cancels the walk so it takes precedence
	if err := <-failed; err != nil {
		return err
	}
	return <-walkErr
}
