/*
Package cache decides whether generated artifacts need to be rebuilt.

IsDirty applies the usual build rules of missing outputs, a changed version
or options marker, or inputs newer than outputs. A DB additionally remembers content hashes
of each input and its outputs so touching a file without changing it does not
force a rebuild.
*/
package cache

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/bodgit/vox2rle/artifact"
)

// The marker is expected within the first few lines of an artifact
const markerLines = 4

// hasMarkers reports whether the version marker, and the options marker when
// fingerprint is set, both appear near the top of file
func hasMarkers(file string, version int, fingerprint string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		return false, err
	}
	defer f.Close()

	markers := map[string]bool{artifact.Marker(version): false}
	if fingerprint != "" {
		markers[artifact.OptionsMarker(fingerprint)] = false
	}

	s := bufio.NewScanner(f)
	for i := 0; i < markerLines && s.Scan(); i++ {
		for m := range markers {
			if strings.Contains(s.Text(), m) {
				markers[m] = true
			}
		}
	}
	if err := s.Err(); err != nil {
		return false, err
	}

	for _, found := range markers {
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// IsDirty reports whether any of outputs is missing, was written by a
// different version or with different settings, or is older than any of
// inputs. An empty fingerprint skips the settings check. A missing input is
// an error.
func IsDirty(version int, fingerprint string, inputs, outputs []string) (bool, error) {
	var newest time.Time
	for _, file := range inputs {
		info, err := os.Stat(file)
		if err != nil {
			return false, err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	for _, file := range outputs {
		info, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return false, err
		}
		ok, err := hasMarkers(file, version, fingerprint)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		if newest.After(info.ModTime()) {
			return true, nil
		}
	}

	return false, nil
}
