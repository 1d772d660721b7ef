package gait

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/gaitid/internal/database/mock"
	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/features"
	"github.com/kozaktomas/gaitid/internal/identity"
)

func testOptions() encoder.Options {
	opts := encoder.DefaultOptions()
	opts.Epochs = 5
	opts.BatchSize = 4
	opts.Bottleneck = 8
	return opts
}

// session builds n deterministic frames; offset shifts every value so two
// sessions differ.
func session(n int, offset float64) []features.Frame {
	frames := make([]features.Frame, n)
	for i := range frames {
		x := float64(i)*0.1 + offset
		frames[i] = features.Frame{
			Joints:       features.Vector{x, x * 2, -x},
			Betas:        features.Vector{0.1 + offset, 0.2},
			GlobalOrient: features.Vector{1, x, 0},
			BodyPose:     features.Vector{x * x, 0.5, -0.5, x + 1},
		}
	}
	return frames
}

func newTestEngine(store *mock.MockSignatureStore) *Engine {
	return NewEngine(testOptions(), identity.NewResolver(store, identity.DefaultThreshold, nil), nil)
}

func TestRunNewPerson(t *testing.T) {
	store := mock.NewMockSignatureStore()
	engine := newTestEngine(store)

	var epochs int
	res, err := engine.Run(context.Background(), session(10, 0), func(encoder.EpochStats) { epochs++ })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.PersonID != 1 || res.Outcome.Kind != identity.New {
		t.Errorf("Run() = person %d kind %s, want new person 1", res.PersonID, res.Outcome.Kind)
	}
	if epochs != 5 || len(res.Epochs) != 5 {
		t.Errorf("observed %d epochs, result has %d, want 5", epochs, len(res.Epochs))
	}
	if res.Frames != 10 || res.Rows != 2 {
		t.Errorf("Frames = %d Rows = %d, want 10 and 2", res.Frames, res.Rows)
	}
	if res.Report.Status != identity.NoPrior {
		t.Errorf("Report.Status = %q, want %q", res.Report.Status, identity.NoPrior)
	}
	if res.Message != "No previous gait signatures available for comparison." {
		t.Errorf("Message = %q", res.Message)
	}

	entries := store.Entries()
	if len(entries) != 1 || entries[0].Values() != 2*8 {
		t.Errorf("stored entries = %+v, want one entry of 16 values", entries)
	}
}

func TestRunSameSessionTwiceIsDuplicate(t *testing.T) {
	store := mock.NewMockSignatureStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	first, err := engine.Run(ctx, session(10, 0), nil)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := engine.Run(ctx, session(10, 0), nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if second.Outcome.Kind != identity.Duplicate || second.PersonID != first.PersonID {
		t.Errorf("second Run() = %+v, want duplicate of person %d", second.Outcome, first.PersonID)
	}
	if got := len(store.Entries()); got != 1 {
		t.Errorf("store has %d entries, want 1", got)
	}
}

func TestRunDifferentSessionsGetDifferentPeople(t *testing.T) {
	store := mock.NewMockSignatureStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	if _, err := engine.Run(ctx, session(10, 0), nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	res, err := engine.Run(ctx, session(15, 3), nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if res.PersonID != 2 {
		t.Errorf("PersonID = %d, want 2", res.PersonID)
	}
	switch res.Report.Status {
	case identity.Identified, identity.NoMatch:
	default:
		t.Errorf("Report.Status = %q, want identified or no_match", res.Report.Status)
	}
}

func TestRunValidationErrorsDoNotWrite(t *testing.T) {
	mismatched := session(4, 0)
	mismatched[2].Betas = features.Vector{1}

	tests := []struct {
		name   string
		frames []features.Frame
		want   error
	}{
		{"no frames", nil, features.ErrMissingFrameData},
		{"inconsistent", mismatched, features.ErrInconsistentDimension},
		{"single frame", session(1, 0), encoder.ErrTrainingDataTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewMockSignatureStore()
			_, err := newTestEngine(store).Run(context.Background(), tt.frames, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run() error = %v, want %v", err, tt.want)
			}
			if identity.Kind(err) != identity.KindValidation {
				t.Errorf("Kind() = %q, want validation", identity.Kind(err))
			}
			if got := len(store.Entries()); got != 0 {
				t.Errorf("store has %d entries, want 0", got)
			}
		})
	}
}

func TestRunStoreFailure(t *testing.T) {
	store := mock.NewMockSignatureStore()
	store.AppendError = errors.New("read-only file system")

	_, err := newTestEngine(store).Run(context.Background(), session(10, 0), nil)
	if !errors.Is(err, identity.ErrStoreWrite) {
		t.Fatalf("Run() error = %v, want ErrStoreWrite", err)
	}
	if identity.Kind(err) != identity.KindStore {
		t.Errorf("Kind() = %q, want store", identity.Kind(err))
	}
}

func TestRunCancelledBeforeWrite(t *testing.T) {
	store := mock.NewMockSignatureStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(store).Run(ctx, session(10, 0), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if got := len(store.Entries()); got != 0 {
		t.Errorf("store has %d entries, want 0", got)
	}
}

func TestRunFile(t *testing.T) {
	data, err := json.Marshal(map[string]any{"frames": session(10, 0)})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "frames.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	store := mock.NewMockSignatureStore()
	res, err := newTestEngine(store).RunFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("RunFile() error = %v", err)
	}
	if res.PersonID != 1 {
		t.Errorf("PersonID = %d, want 1", res.PersonID)
	}

	if _, err := newTestEngine(store).RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
