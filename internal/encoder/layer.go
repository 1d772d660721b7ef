package encoder

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// dense is a fully connected layer y = x·W + b with an optional ReLU.
// Rows of x are samples.
type dense struct {
	w    *mat.Dense // in × out
	b    []float64
	relu bool

	gw *mat.Dense
	gb []float64

	// Adam moments.
	mw, vw *mat.Dense
	mb, vb []float64

	// Forward cache for the backward pass.
	input  *mat.Dense
	output *mat.Dense
}

// newDense initialises weights and biases from U(-1/sqrt(in), 1/sqrt(in)).
func newDense(in, out int, relu bool, rng *rand.Rand) *dense {
	bound := 1 / math.Sqrt(float64(in))
	uniform := func() float64 { return (rng.Float64()*2 - 1) * bound }

	w := make([]float64, in*out)
	for i := range w {
		w[i] = uniform()
	}
	b := make([]float64, out)
	for i := range b {
		b[i] = uniform()
	}

	return &dense{
		w:    mat.NewDense(in, out, w),
		b:    b,
		relu: relu,
		gw:   mat.NewDense(in, out, nil),
		gb:   make([]float64, out),
		mw:   mat.NewDense(in, out, nil),
		vw:   mat.NewDense(in, out, nil),
		mb:   make([]float64, out),
		vb:   make([]float64, out),
	}
}

func (l *dense) dims() (int, int) {
	return l.w.Dims()
}

// forward computes the layer output. When train is set the input and output
// are kept for backward.
func (l *dense) forward(x *mat.Dense, train bool) *mat.Dense {
	rows, _ := x.Dims()
	_, out := l.dims()

	y := mat.NewDense(rows, out, nil)
	y.Mul(x, l.w)
	y.Apply(func(_, j int, v float64) float64 {
		v += l.b[j]
		if l.relu && v < 0 {
			return 0
		}
		return v
	}, y)

	if train {
		l.input = x
		l.output = y
	}
	return y
}

// backward takes dL/dy, stores parameter gradients and returns dL/dx.
func (l *dense) backward(grad *mat.Dense) *mat.Dense {
	rows, out := grad.Dims()
	in, _ := l.dims()

	g := mat.DenseCopyOf(grad)
	if l.relu {
		g.Apply(func(i, j int, v float64) float64 {
			if l.output.At(i, j) <= 0 {
				return 0
			}
			return v
		}, g)
	}

	l.gw.Mul(l.input.T(), g)
	for j := 0; j < out; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += g.At(i, j)
		}
		l.gb[j] = sum
	}

	dx := mat.NewDense(rows, in, nil)
	dx.Mul(g, l.w.T())
	return dx
}

// step applies one Adam update using the stored gradients.
func (l *dense) step(opt *adam) {
	opt.update(l.w.RawMatrix().Data, l.gw.RawMatrix().Data, l.mw.RawMatrix().Data, l.vw.RawMatrix().Data)
	opt.update(l.b, l.gb, l.mb, l.vb)
}
