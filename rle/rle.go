/*
Package rle implements the run-length encoding used for voxel data.

A stream is a sequence of (count, value) byte pairs. Counts are always between
1 and 255; a longer run is split and no two adjacent pairs hold the same value
unless the first one is full.
*/
package rle

import (
	"errors"
	"fmt"
)

// MaxRun is the longest run a single pair can hold
const MaxRun = 255

var (
	// ErrOddLength is returned for a stream that does not hold whole pairs
	ErrOddLength = errors.New("rle: odd stream length")
	// ErrZeroRun is returned for a pair with a count of zero
	ErrZeroRun = errors.New("rle: zero length run")
)

// LengthError is returned when a stream expands to the wrong number of values.
type LengthError struct {
	Want, Got int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("rle: stream expands to %d values, expected %d", e.Got, e.Want)
}

// Encode run-length encodes src. The counts of the result always add up to
// len(src).
func Encode(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}

	dst := make([]byte, 0, 64)
	value, count := src[0], 1
	for _, c := range src[1:] {
		if c == value && count < MaxRun {
			count++
			continue
		}
		dst = append(dst, byte(count), value)
		value, count = c, 1
	}

	// Always flush the pending run
	return append(dst, byte(count), value)
}

// Validate checks that b is a well formed stream expanding to exactly n
// values.
func Validate(b []byte, n int) error {
	if len(b)%2 != 0 {
		return ErrOddLength
	}
	total := 0
	for i := 0; i < len(b); i += 2 {
		if b[i] == 0 {
			return ErrZeroRun
		}
		total += int(b[i])
	}
	if total != n {
		return &LengthError{Want: n, Got: total}
	}
	return nil
}

// Decode expands b, which must hold exactly n values.
func Decode(b []byte, n int) ([]byte, error) {
	if err := Validate(b, n); err != nil {
		return nil, err
	}
	dst := make([]byte, 0, n)
	for i := 0; i < len(b); i += 2 {
		for j := 0; j < int(b[i]); j++ {
			dst = append(dst, b[i+1])
		}
	}
	return dst, nil
}
