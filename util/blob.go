// Package util - shared helpers for raw tensor blobs.
package util

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
)

// float32Size is the number of bytes per encoded float32 value.
const float32Size = 4

// Float32sFromBytes reinterprets raw little-endian bytes as float32 values.
//
// Arguments:
//   - raw: The byte buffer to decode. Its length must be a multiple of 4.
//
// Returns:
//   - The decoded float32 slice.
//   - An error if the buffer length is not a multiple of 4.
func Float32sFromBytes(raw []byte) ([]float32, error) {
	if len(raw)%float32Size != 0 {
		return nil, errors.Errorf("blob length %d is not a multiple of %d bytes", len(raw), float32Size)
	}

	vals := make([]float32, len(raw)/float32Size)
	for i := range vals {
		bits := binary.LittleEndian.Uint32(raw[i*float32Size:])
		vals[i] = math.Float32frombits(bits)
	}
	return vals, nil
}

// BytesFromFloat32s encodes float32 values as little-endian bytes.
func BytesFromFloat32s(vals []float32) []byte {
	raw := make([]byte, len(vals)*float32Size)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*float32Size:], math.Float32bits(v))
	}
	return raw
}

// ReadFloat32File loads a flat float32 blob from disk.
//
// Arguments:
//   - path: Path to the blob file.
//
// Returns:
//   - The decoded float32 slice.
//   - An error if reading or decoding fails.
func ReadFloat32File(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read blob %s", path)
	}

	vals, err := Float32sFromBytes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode blob %s", path)
	}
	return vals, nil
}

// WriteFloat32File writes a flat float32 blob to disk.
func WriteFloat32File(path string, vals []float32) error {
	if err := os.WriteFile(path, BytesFromFloat32s(vals), 0o644); err != nil {
		return errors.Wrapf(err, "write blob %s", path)
	}
	return nil
}
