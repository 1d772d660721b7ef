package encoder

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kozaktomas/gaitid/internal/features"
	"gonum.org/v1/gonum/mat"
)

// ErrTrainingDataTooSmall is returned when the split leaves no training rows.
var ErrTrainingDataTooSmall = errors.New("training subset is empty")

// ErrInvalidOptions is returned for hyperparameters that cannot train.
var ErrInvalidOptions = errors.New("invalid encoder options")

// Options holds the training hyperparameters.
type Options struct {
	Bottleneck   int     `yaml:"bottleneck"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	TestSplit    float64 `yaml:"test_split"`
	Seed         uint64  `yaml:"seed"`
}

// DefaultOptions returns the reference hyperparameters.
func DefaultOptions() Options {
	return Options{
		Bottleneck:   32,
		Epochs:       100,
		BatchSize:    32,
		LearningRate: 1e-3,
		TestSplit:    0.2,
		Seed:         42,
	}
}

// Validate reports whether the options can be used for training.
func (o Options) Validate() error {
	switch {
	case o.Bottleneck <= 0:
		return fmt.Errorf("%w: bottleneck must be positive", ErrInvalidOptions)
	case o.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive", ErrInvalidOptions)
	case o.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidOptions)
	case o.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidOptions)
	case o.TestSplit <= 0 || o.TestSplit >= 1:
		return fmt.Errorf("%w: test split must be in (0, 1)", ErrInvalidOptions)
	}
	return nil
}

// EpochStats is the per-pass diagnostic report.
type EpochStats struct {
	Epoch     int     `json:"epoch"`
	Epochs    int     `json:"epochs"`
	TrainLoss float64 `json:"train_loss"`
	TestLoss  float64 `json:"test_loss"`
}

// Result is a trained model together with the split it was trained on.
type Result struct {
	Model   *Model
	Train   [][]float64
	HeldOut [][]float64
	Epochs  []EpochStats
}

// Trainer builds a fresh model for every session it is given. It holds no
// model state between calls and is safe for concurrent use.
type Trainer struct {
	opts Options
}

// NewTrainer creates a trainer with the given options.
func NewTrainer(opts Options) *Trainer {
	return &Trainer{opts: opts}
}

// Options returns the trainer's hyperparameters.
func (t *Trainer) Options() Options {
	return t.opts
}

// Split partitions n row indices into training and held-out sets. The
// held-out count is ceil(testSplit*n).
func Split(n int, testSplit float64, seed uint64) (train, heldOut []int) {
	rng := rand.New(rand.NewPCG(seed, 1))
	perm := rng.Perm(n)
	nTest := int(math.Ceil(testSplit * float64(n)))
	if nTest > n {
		nTest = n
	}
	return perm[nTest:], perm[:nTest]
}

// Train fits a new autoencoder on the training subset of m, reporting both
// losses after every epoch through observe (which may be nil).
func (t *Trainer) Train(m *features.Matrix, observe func(EpochStats)) (*Result, error) {
	if err := t.opts.Validate(); err != nil {
		return nil, err
	}
	if m == nil || m.Len() == 0 {
		return nil, features.ErrMissingFrameData
	}

	trainIdx, testIdx := Split(m.Len(), t.opts.TestSplit, t.opts.Seed)
	if len(trainIdx) == 0 {
		return nil, fmt.Errorf("%w: %d frame(s) with test split %.2f", ErrTrainingDataTooSmall, m.Len(), t.opts.TestSplit)
	}

	train := pick(m.Rows, trainIdx)
	heldOut := pick(m.Rows, testIdx)

	model := newModel(m.Width(), t.opts.Bottleneck, rand.New(rand.NewPCG(t.opts.Seed, 2)))
	opt := newAdam(t.opts.LearningRate)
	shuffle := rand.New(rand.NewPCG(t.opts.Seed, 3))

	testBatches := batches(heldOut, seq(len(heldOut)), t.opts.BatchSize)
	history := make([]EpochStats, 0, t.opts.Epochs)

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		order := shuffle.Perm(len(train))

		var trainLoss float64
		trainBatches := batches(train, order, t.opts.BatchSize)
		for _, batch := range trainBatches {
			recon := model.forward(batch, true)
			loss, grad := mse(recon, batch)
			model.backward(grad)
			model.step(opt)
			trainLoss += loss
		}

		var testLoss float64
		for _, batch := range testBatches {
			loss, _ := mse(model.forward(batch, false), batch)
			testLoss += loss
		}

		stats := EpochStats{
			Epoch:     epoch,
			Epochs:    t.opts.Epochs,
			TrainLoss: trainLoss / float64(len(trainBatches)),
			TestLoss:  testLoss / float64(len(testBatches)),
		}
		history = append(history, stats)
		if observe != nil {
			observe(stats)
		}
	}

	return &Result{Model: model, Train: train, HeldOut: heldOut, Epochs: history}, nil
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// batches packs rows (in the given order) into matrices of at most size rows.
func batches(rows [][]float64, order []int, size int) []*mat.Dense {
	if len(order) == 0 {
		return nil
	}
	width := len(rows[0])

	var out []*mat.Dense
	for start := 0; start < len(order); start += size {
		end := min(start+size, len(order))
		data := make([]float64, 0, (end-start)*width)
		for _, i := range order[start:end] {
			data = append(data, rows[i]...)
		}
		out = append(out, mat.NewDense(end-start, width, data))
	}
	return out
}
