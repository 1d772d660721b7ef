package features

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFrameData is returned when a session carries no frames.
	ErrMissingFrameData = errors.New("no frame data found")

	// ErrInconsistentDimension is returned when a frame's component widths
	// differ from the first frame of the session.
	ErrInconsistentDimension = errors.New("inconsistent frame dimension")

	// ErrInvalidDocument is returned when frame input is not valid JSON of
	// the expected shape.
	ErrInvalidDocument = errors.New("invalid frame document")
)

// DimensionError reports which frame and component broke the session shape.
type DimensionError struct {
	Frame     int
	Component string
	Want      int
	Got       int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: frame %d %s has width %d, want %d",
		ErrInconsistentDimension, e.Frame, e.Component, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrInconsistentDimension.
func (e *DimensionError) Unwrap() error {
	return ErrInconsistentDimension
}

// ErrorKind classifies assembly failures as input validation problems.
func (e *DimensionError) ErrorKind() string {
	return "validation"
}
