// Package encoder trains a small per-session autoencoder whose bottleneck
// layer produces gait signature vectors.
package encoder

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Hidden layer widths between the input and the bottleneck.
const (
	hiddenWide   = 128
	hiddenNarrow = 64
)

// Model is an encoder/decoder pair D→128→64→B→64→128→D.
type Model struct {
	encoder    []*dense
	decoder    []*dense
	inputDim   int
	bottleneck int
}

func newModel(inputDim, bottleneck int, rng *rand.Rand) *Model {
	return &Model{
		encoder: []*dense{
			newDense(inputDim, hiddenWide, true, rng),
			newDense(hiddenWide, hiddenNarrow, true, rng),
			newDense(hiddenNarrow, bottleneck, false, rng),
		},
		decoder: []*dense{
			newDense(bottleneck, hiddenNarrow, true, rng),
			newDense(hiddenNarrow, hiddenWide, true, rng),
			newDense(hiddenWide, inputDim, false, rng),
		},
		inputDim:   inputDim,
		bottleneck: bottleneck,
	}
}

// InputDim returns the feature width D the model was trained on.
func (m *Model) InputDim() int {
	return m.inputDim
}

// Bottleneck returns the signature width B.
func (m *Model) Bottleneck() int {
	return m.bottleneck
}

// Encode maps a single feature row to its bottleneck vector.
func (m *Model) Encode(row []float64) []float32 {
	x := mat.NewDense(1, len(row), append([]float64(nil), row...))
	z := m.encode(x, false)

	out := make([]float32, m.bottleneck)
	for j := range out {
		out[j] = float32(z.At(0, j))
	}
	return out
}

func (m *Model) encode(x *mat.Dense, train bool) *mat.Dense {
	for _, l := range m.encoder {
		x = l.forward(x, train)
	}
	return x
}

func (m *Model) forward(x *mat.Dense, train bool) *mat.Dense {
	x = m.encode(x, train)
	for _, l := range m.decoder {
		x = l.forward(x, train)
	}
	return x
}

func (m *Model) backward(grad *mat.Dense) {
	for i := len(m.decoder) - 1; i >= 0; i-- {
		grad = m.decoder[i].backward(grad)
	}
	for i := len(m.encoder) - 1; i >= 0; i-- {
		grad = m.encoder[i].backward(grad)
	}
}

func (m *Model) step(opt *adam) {
	opt.begin()
	for _, l := range m.encoder {
		l.step(opt)
	}
	for _, l := range m.decoder {
		l.step(opt)
	}
}

// mse returns the mean squared error between reconstruction and target and
// the gradient of that loss with respect to the reconstruction.
func mse(recon, target *mat.Dense) (float64, *mat.Dense) {
	rows, cols := target.Dims()
	n := float64(rows * cols)

	grad := mat.NewDense(rows, cols, nil)
	grad.Sub(recon, target)

	var loss float64
	grad.Apply(func(_, _ int, d float64) float64 {
		loss += d * d
		return 2 * d / n
	}, grad)

	return loss / n, grad
}
