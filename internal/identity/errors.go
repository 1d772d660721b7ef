package identity

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/features"
)

// ErrStoreWrite is returned when an insert transaction fails. No identity is
// assigned and nothing is persisted.
var ErrStoreWrite = errors.New("signature store write failed")

// Error kinds reported by Kind.
const (
	KindValidation = "validation"
	KindStore      = "store"
	KindUnknown    = "unknown"
)

// StoreWriteError wraps the cause of a failed insert transaction.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s: %v", ErrStoreWrite, e.Err)
}

func (e *StoreWriteError) Unwrap() []error {
	return []error{ErrStoreWrite, e.Err}
}

func (e *StoreWriteError) ErrorKind() string {
	return KindStore
}

// Kind classifies err into validation, store or unknown.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var classified interface{ ErrorKind() string }
	if errors.As(err, &classified) {
		return classified.ErrorKind()
	}
	switch {
	case errors.Is(err, features.ErrMissingFrameData),
		errors.Is(err, features.ErrInconsistentDimension),
		errors.Is(err, features.ErrInvalidDocument),
		errors.Is(err, encoder.ErrTrainingDataTooSmall),
		errors.Is(err, encoder.ErrInvalidOptions):
		return KindValidation
	case errors.Is(err, ErrStoreWrite):
		return KindStore
	}
	return KindUnknown
}
