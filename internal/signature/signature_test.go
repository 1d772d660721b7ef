package signature

import (
	"errors"
	"math"
	"testing"
)

// constEncoder maps each row to a bottleneck vector derived from its first value.
type constEncoder struct{ width int }

func (e constEncoder) Encode(row []float64) []float32 {
	out := make([]float32, e.width)
	for i := range out {
		out[i] = float32(row[0]) + float32(i)
	}
	return out
}

func stack(rows, width int, base float32) []float32 {
	out := make([]float32, rows*width)
	for i := range out {
		out[i] = base + float32(i%7)*0.25
	}
	return out
}

func TestAggregateUsesEveryHeldOutRow(t *testing.T) {
	heldOut := [][]float64{{1, 9}, {2, 9}, {3, 9}}

	sig := Aggregate(constEncoder{width: 32}, heldOut)
	if sig.Len() != len(heldOut) {
		t.Fatalf("Len() = %d, want %d", sig.Len(), len(heldOut))
	}
	if got := len(sig.Flat()); got != 3*32 {
		t.Errorf("Flat() length = %d, want %d", got, 3*32)
	}
	if sig.Rows[2][0] != 3 {
		t.Errorf("rows out of order: %v", sig.Rows[2][:2])
	}
}

func TestBytesDecode(t *testing.T) {
	sig := Signature{Rows: [][]float32{{1.5, -2, 0, 3.25}, {0.125, 7, -1e-3, 42}}}

	b := sig.Bytes()
	if len(b) != 8*4 {
		t.Fatalf("Bytes() length = %d, want 32", len(b))
	}
	// Little-endian float32 1.5 is 0x3FC00000.
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0xC0 || b[3] != 0x3F {
		t.Errorf("unexpected byte layout % x", b[:4])
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := sig.Flat()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Decode()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := Decode([]byte{1, 2, 3}); !errors.Is(err, ErrCorruptSignature) {
		t.Errorf("Decode(3 bytes) error = %v, want ErrCorruptSignature", err)
	}
}

func TestPadAndFlatten(t *testing.T) {
	got, err := PadAndFlatten([]float32{1, 2, 3, 4}, 3)
	if err != nil {
		t.Fatalf("PadAndFlatten() error = %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("length = %d, want 12", len(got))
	}
	for i := 4; i < 12; i++ {
		if got[i] != 0 {
			t.Errorf("padding[%d] = %v, want 0", i, got[i])
		}
	}

	if _, err := PadAndFlatten([]float32{1, 2, 3}, 2); !errors.Is(err, ErrRaggedSignature) {
		t.Errorf("ragged input error = %v, want ErrRaggedSignature", err)
	}
	if _, err := PadAndFlatten(make([]float32, 12), 2); err == nil {
		t.Error("expected error when target row count is below current")
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := []struct {
		name string
		a, b []float32
	}{
		{name: "equal rows", a: stack(5, 32, 0.1), b: stack(5, 32, 0.3)},
		{name: "5 vs 8 rows", a: stack(5, 32, 0.1), b: stack(8, 32, 0.2)},
		{name: "1 vs 20 rows", a: stack(1, 32, 1), b: stack(20, 32, -0.5)},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			ab, err := Similarity(p.a, p.b)
			if err != nil {
				t.Fatalf("Similarity(a, b) error = %v", err)
			}
			ba, err := Similarity(p.b, p.a)
			if err != nil {
				t.Fatalf("Similarity(b, a) error = %v", err)
			}
			if ab != ba {
				t.Errorf("Similarity not symmetric: %v vs %v", ab, ba)
			}
		})
	}
}

func TestSimilarityDifferentRowCounts(t *testing.T) {
	a := stack(5, 32, 0.5)
	b := stack(8, 32, 0.5)

	got, err := Similarity(a, b)
	if err != nil {
		t.Fatalf("Similarity() error = %v", err)
	}
	if math.IsNaN(got) || got <= 0 || got >= 1 {
		t.Errorf("Similarity(5 rows, 8 rows) = %v, want in (0, 1)", got)
	}
}

func TestSimilarityValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{0.3, 1.7, 2.9, 0.01}, b: []float32{0.3, 1.7, 2.9, 0.01}, want: 1},
		{name: "opposite", a: []float32{1, 2, 3, 4}, b: []float32{-1, -2, -3, -4}, want: -1},
		{name: "orthogonal", a: []float32{1, 0, 0, 0}, b: []float32{0, 1, 0, 0}, want: 0},
		{name: "three quarters", a: []float32{1, 0, 0, 0, 0, 0, 0, 0}, b: []float32{3, 2, 1, 1, 1, 0, 0, 0}, want: 0.75},
		{name: "zero vector", a: []float32{0, 0, 0, 0}, b: []float32{1, 1, 1, 1}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Similarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Similarity() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarityBytes(t *testing.T) {
	a := Encode(stack(3, 32, 0.2))

	got, err := SimilarityBytes(a, a)
	if err != nil {
		t.Fatalf("SimilarityBytes() error = %v", err)
	}
	if got != 1 {
		t.Errorf("SimilarityBytes(a, a) = %v, want 1", got)
	}

	if _, err := SimilarityBytes(a, []byte{1, 2, 3, 4, 5, 6, 7, 8}); !errors.Is(err, ErrRaggedSignature) {
		t.Errorf("two-value payload error = %v, want ErrRaggedSignature", err)
	}
}
