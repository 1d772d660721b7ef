// Package signature builds gait signatures from a trained encoder and
// compares them.
package signature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrCorruptSignature is returned when a stored payload is not a whole number
// of float32 values.
var ErrCorruptSignature = errors.New("signature payload is not a float32 sequence")

// Encoder maps one feature row to a bottleneck vector.
type Encoder interface {
	Encode(row []float64) []float32
}

// Signature is the ordered stack of per-frame signature vectors for one
// session.
type Signature struct {
	Rows [][]float32
}

// Aggregate encodes every held-out row. No pooling is applied: the result
// has exactly one row per held-out frame.
func Aggregate(enc Encoder, heldOut [][]float64) Signature {
	rows := make([][]float32, len(heldOut))
	for i, row := range heldOut {
		rows[i] = enc.Encode(row)
	}
	return Signature{Rows: rows}
}

// Len returns the number of signature rows.
func (s Signature) Len() int {
	return len(s.Rows)
}

// Flat concatenates the rows.
func (s Signature) Flat() []float32 {
	var n int
	for _, r := range s.Rows {
		n += len(r)
	}
	out := make([]float32, 0, n)
	for _, r := range s.Rows {
		out = append(out, r...)
	}
	return out
}

// Bytes serialises the signature as little-endian float32 values, row-major.
func (s Signature) Bytes() []byte {
	return Encode(s.Flat())
}

// Encode serialises a flat vector as little-endian float32 values.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// Decode parses a stored payload back into a flat vector.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptSignature, len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}
