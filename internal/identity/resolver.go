// Package identity assigns person ids to gait signatures and answers
// identification queries against the stored population.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kozaktomas/gaitid/internal/database"
	"github.com/kozaktomas/gaitid/internal/signature"
)

// DefaultThreshold is the similarity a candidate must strictly exceed to be
// reported as identified.
const DefaultThreshold = 0.75

// OutcomeKind describes how Insert resolved a signature.
type OutcomeKind string

const (
	// Duplicate means a byte-identical signature was already stored.
	Duplicate OutcomeKind = "duplicate"
	// Matched means an existing person id was reused without an exact copy.
	Matched OutcomeKind = "matched"
	// New means a fresh person id was allocated.
	New OutcomeKind = "new"
)

// Outcome is the result of Insert.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	PersonID   int64       `json:"person_id"`
	GaitID     int64       `json:"gait_id"`
	Similarity float64     `json:"similarity"`
}

// Status describes the result of an identification query.
type Status string

const (
	Identified Status = "identified"
	NoMatch    Status = "no_match"
	Empty      Status = "empty"
	NoPrior    Status = "no_prior"
	Failed     Status = "failed"
)

// Report is the result of Identify.
type Report struct {
	Status     Status  `json:"status"`
	PersonID   int64   `json:"person_id,omitempty"`
	Similarity float64 `json:"similarity"`
	Err        error   `json:"-"`
}

// Message renders the report as a human-readable line.
func (r Report) Message() string {
	switch r.Status {
	case Identified:
		return "Person identified. " + strconv.FormatInt(r.PersonID, 10) +
			" with similarity: " + formatScore(r.Similarity)
	case NoMatch:
		return "No matching person found. Similarity: " + formatScore(r.Similarity)
	case Empty:
		return "No gait signature found in the database."
	case NoPrior:
		return "No previous gait signatures available for comparison."
	default:
		return fmt.Sprintf("Error during human identification: %v", r.Err)
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Resolver decides identities against a signature store.
type Resolver struct {
	store     database.SignatureStore
	threshold float64
	logger    *slog.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(store database.SignatureStore, threshold float64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{store: store, threshold: threshold, logger: logger}
}

// Threshold returns the identification threshold.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Insert stores sig, reusing the person id of a byte-identical entry when one
// exists. The read-decide-insert sequence runs in a single write transaction.
func (r *Resolver) Insert(ctx context.Context, sig []byte) (Outcome, error) {
	var out Outcome
	err := r.store.WithinTx(ctx, func(tx database.SignatureTx) error {
		dup, err := tx.FindBySignature(ctx, sig)
		if err != nil {
			return err
		}
		if dup != nil {
			out = Outcome{Kind: Duplicate, PersonID: dup.PersonID, GaitID: dup.GaitID, Similarity: 1}
			return nil
		}

		entries, err := tx.All(ctx)
		if err != nil {
			return err
		}

		var best *database.Entry
		var highest float64
		for i := range entries {
			s, err := signature.SimilarityBytes(sig, entries[i].Signature)
			if err != nil {
				return fmt.Errorf("compare with gait %d: %w", entries[i].GaitID, err)
			}
			if s == 1 {
				out = Outcome{Kind: Duplicate, PersonID: entries[i].PersonID, GaitID: entries[i].GaitID, Similarity: 1}
				return nil
			}
			if s > highest {
				highest = s
				best = &entries[i]
			}
		}

		// Similarity is bounded by 1, so this branch never fires.
		if best != nil && highest > 1 {
			gaitID, err := tx.Append(ctx, best.PersonID, sig)
			if err != nil {
				return err
			}
			out = Outcome{Kind: Matched, PersonID: best.PersonID, GaitID: gaitID, Similarity: highest}
			return nil
		}

		personID := database.MaxPersonID(entries) + 1
		gaitID, err := tx.Append(ctx, personID, sig)
		if err != nil {
			return err
		}
		out = Outcome{Kind: New, PersonID: personID, GaitID: gaitID, Similarity: highest}
		return nil
	})
	if err != nil {
		r.logger.Error("signature insert failed", "error", err)
		return Outcome{}, &StoreWriteError{Err: err}
	}

	r.logger.Info("signature stored",
		"kind", out.Kind,
		"person_id", out.PersonID,
		"gait_id", out.GaitID,
		"similarity", out.Similarity)
	return out, nil
}

// Identify compares the entry with the highest person id against every entry
// belonging to another person. It never mutates the store and never returns an
// error; failures are reported with Status Failed.
func (r *Resolver) Identify(ctx context.Context) Report {
	entries, err := r.store.All(ctx)
	if err != nil {
		return r.failed(err)
	}

	query := database.LatestByPerson(entries)
	if query == nil {
		return Report{Status: Empty}
	}

	var best *database.Entry
	var highest float64
	compared := 0
	for i := range entries {
		e := &entries[i]
		if e.PersonID == query.PersonID {
			continue
		}
		compared++
		s, err := signature.SimilarityBytes(query.Signature, e.Signature)
		if err != nil {
			return r.failed(fmt.Errorf("compare gait %d with gait %d: %w", query.GaitID, e.GaitID, err))
		}
		if s > highest {
			highest = s
			best = e
		}
	}

	if compared == 0 {
		return Report{Status: NoPrior}
	}
	if best != nil && highest > r.threshold {
		r.logger.Debug("person identified", "person_id", best.PersonID, "similarity", highest)
		return Report{Status: Identified, PersonID: best.PersonID, Similarity: highest}
	}
	return Report{Status: NoMatch, Similarity: highest}
}

func (r *Resolver) failed(err error) Report {
	r.logger.Warn("identification failed", "error", err)
	return Report{Status: Failed, Err: err}
}
