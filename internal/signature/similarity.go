package signature

import (
	"errors"
	"fmt"
	"math"
)

// RowWidth is the per-row feature count used to reshape flat signatures
// before padding.
const RowWidth = 4

// ErrRaggedSignature is returned when a flat signature cannot be reshaped
// into rows of RowWidth values.
var ErrRaggedSignature = errors.New("signature length is not a multiple of the row width")

// Rows returns the row count of a flat signature.
func Rows(sig []float32) (int, error) {
	if len(sig)%RowWidth != 0 {
		return 0, fmt.Errorf("%w: %d values", ErrRaggedSignature, len(sig))
	}
	return len(sig) / RowWidth, nil
}

// PadAndFlatten reshapes sig into rows of RowWidth and appends zero rows
// until it has rows rows.
func PadAndFlatten(sig []float32, rows int) ([]float32, error) {
	have, err := Rows(sig)
	if err != nil {
		return nil, err
	}
	if have > rows {
		return nil, fmt.Errorf("cannot pad %d rows down to %d", have, rows)
	}
	out := make([]float32, rows*RowWidth)
	copy(out, sig)
	return out, nil
}

// Similarity pads the shorter signature with zero rows and returns the
// cosine similarity of the two flattened vectors. Zero padding lowers the
// score for signatures of very different lengths.
func Similarity(a, b []float32) (float64, error) {
	ra, err := Rows(a)
	if err != nil {
		return 0, err
	}
	rb, err := Rows(b)
	if err != nil {
		return 0, err
	}
	rows := max(ra, rb)

	pa, err := PadAndFlatten(a, rows)
	if err != nil {
		return 0, err
	}
	pb, err := PadAndFlatten(b, rows)
	if err != nil {
		return 0, err
	}
	return 1 - CosineDistance(pa, pb), nil
}

// SimilarityBytes decodes two stored payloads and compares them.
func SimilarityBytes(a, b []byte) (float64, error) {
	va, err := Decode(a)
	if err != nil {
		return 0, err
	}
	vb, err := Decode(b)
	if err != nil {
		return 0, err
	}
	return Similarity(va, vb)
}

// CosineDistance computes the cosine distance between two equal-length
// vectors. Returns 1 (orthogonal) when either vector has zero norm.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	// sqrt(normA*normB) keeps identical vectors at exactly 1.
	similarity := dotProduct / math.Sqrt(normA*normB)
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}
