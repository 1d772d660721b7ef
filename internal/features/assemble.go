package features

// Matrix is the session feature matrix: one flattened row per frame.
type Matrix struct {
	Rows   [][]float64
	Widths Widths
}

// Len returns the number of frames.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Width returns the row width D.
func (m *Matrix) Width() int {
	return m.Widths.Total()
}

// Assemble validates that every frame shares the first frame's component
// widths and flattens each frame into a row.
func Assemble(frames []Frame) (*Matrix, error) {
	if len(frames) == 0 {
		return nil, ErrMissingFrameData
	}

	want := frames[0].Widths()
	if want.Total() == 0 {
		return nil, ErrMissingFrameData
	}

	rows := make([][]float64, len(frames))
	for i, frame := range frames {
		got := frame.Widths()
		if component, w, g := want.mismatch(got); component != "" {
			return nil, &DimensionError{Frame: i, Component: component, Want: w, Got: g}
		}
		rows[i] = frame.Flatten()
	}

	return &Matrix{Rows: rows, Widths: want}, nil
}
