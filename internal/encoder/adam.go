package encoder

import "math"

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// adam holds the optimizer hyperparameters and the bias-correction terms for
// the current step.
type adam struct {
	lr    float64
	t     int
	corr1 float64
	corr2 float64
}

func newAdam(lr float64) *adam {
	return &adam{lr: lr}
}

// begin advances the step counter; call once per mini-batch before update.
func (a *adam) begin() {
	a.t++
	a.corr1 = 1 - math.Pow(adamBeta1, float64(a.t))
	a.corr2 = 1 - math.Pow(adamBeta2, float64(a.t))
}

func (a *adam) update(param, grad, m, v []float64) {
	for i, g := range grad {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g*g
		mHat := m[i] / a.corr1
		vHat := v[i] / a.corr2
		param[i] -= a.lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
	}
}
