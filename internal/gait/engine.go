// Package gait runs one identification session end to end: assemble the
// frames, train a fresh encoder, build the signature, store it and identify.
package gait

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/features"
	"github.com/kozaktomas/gaitid/internal/identity"
	"github.com/kozaktomas/gaitid/internal/signature"
)

// Result summarises a completed run.
type Result struct {
	PersonID int64                `json:"person_id"`
	Outcome  identity.Outcome     `json:"outcome"`
	Report   identity.Report      `json:"report"`
	Message  string               `json:"message"`
	Frames   int                  `json:"frames"`
	Rows     int                  `json:"rows"`
	Epochs   []encoder.EpochStats `json:"epochs"`
}

// Engine wires the trainer and the resolver together. It keeps no state
// between runs.
type Engine struct {
	trainer  *encoder.Trainer
	resolver *identity.Resolver
	logger   *slog.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(opts encoder.Options, resolver *identity.Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		trainer:  encoder.NewTrainer(opts),
		resolver: resolver,
		logger:   logger,
	}
}

// Options returns the training options every run uses.
func (e *Engine) Options() encoder.Options {
	return e.trainer.Options()
}

// Resolver returns the identity resolver used by the engine.
func (e *Engine) Resolver() *identity.Resolver {
	return e.resolver
}

// Run processes one session. Input validation failures are returned before
// anything is written to the store.
func (e *Engine) Run(ctx context.Context, frames []features.Frame, observe func(encoder.EpochStats)) (*Result, error) {
	matrix, err := features.Assemble(frames)
	if err != nil {
		return nil, err
	}
	e.logger.Info("frames assembled", "frames", matrix.Len(), "width", matrix.Width())

	trained, err := e.trainer.Train(matrix, func(s encoder.EpochStats) {
		e.logger.Debug("epoch finished",
			"epoch", s.Epoch,
			"epochs", s.Epochs,
			"train_loss", s.TrainLoss,
			"test_loss", s.TestLoss)
		if observe != nil {
			observe(s)
		}
	})
	if err != nil {
		return nil, err
	}
	if n := len(trained.Epochs); n > 0 {
		last := trained.Epochs[n-1]
		e.logger.Info("encoder trained",
			"epochs", n,
			"train_rows", len(trained.Train),
			"held_out_rows", len(trained.HeldOut),
			"train_loss", last.TrainLoss,
			"test_loss", last.TestLoss)
	}

	sig := signature.Aggregate(trained.Model, trained.HeldOut)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before store write: %w", err)
	}

	outcome, err := e.resolver.Insert(ctx, sig.Bytes())
	if err != nil {
		return nil, err
	}

	report := e.resolver.Identify(ctx)
	message := report.Message()
	e.logger.Info("identification finished",
		"person_id", outcome.PersonID,
		"status", report.Status,
		"message", message)

	return &Result{
		PersonID: outcome.PersonID,
		Outcome:  outcome,
		Report:   report,
		Message:  message,
		Frames:   matrix.Len(),
		Rows:     sig.Len(),
		Epochs:   trained.Epochs,
	}, nil
}

// RunFile loads frames from path and runs them.
func (e *Engine) RunFile(ctx context.Context, path string, observe func(encoder.EpochStats)) (*Result, error) {
	frames, err := features.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, frames, observe)
}
