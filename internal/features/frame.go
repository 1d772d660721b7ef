// Package features turns per-frame body-pose records produced by the upstream
// pose estimator into a session feature matrix.
package features

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Vector is one numeric component of a frame. The estimator emits components
// with leading batch dimensions (joints[0], body_pose[0][0]); decoding flattens
// any nesting in row-major order.
type Vector []float64

// UnmarshalJSON accepts a number, null, or arbitrarily nested numeric arrays.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding component: %w", err)
	}
	flat, err := flatten(raw, nil)
	if err != nil {
		return err
	}
	*v = flat
	return nil
}

func flatten(raw any, out []float64) ([]float64, error) {
	switch val := raw.(type) {
	case nil:
		return out, nil
	case float64:
		return append(out, val), nil
	case []any:
		var err error
		for _, item := range val {
			if out, err = flatten(item, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected %T in numeric component", raw)
	}
}

// Frame holds one video frame's measurements.
type Frame struct {
	Joints       Vector `json:"joints"`
	Betas        Vector `json:"betas"`
	GlobalOrient Vector `json:"global_orient"`
	BodyPose     Vector `json:"body_pose"`
}

// Widths returns the dimensionality of each component.
func (f Frame) Widths() Widths {
	return Widths{
		Joints:       len(f.Joints),
		Betas:        len(f.Betas),
		GlobalOrient: len(f.GlobalOrient),
		BodyPose:     len(f.BodyPose),
	}
}

// Flatten concatenates joints, betas, global orientation and body pose.
func (f Frame) Flatten() []float64 {
	w := f.Widths()
	row := make([]float64, 0, w.Total())
	row = append(row, f.Joints...)
	row = append(row, f.Betas...)
	row = append(row, f.GlobalOrient...)
	row = append(row, f.BodyPose...)
	return row
}

// Widths describes the component dimensionalities of a frame.
type Widths struct {
	Joints       int `json:"joints"`
	Betas        int `json:"betas"`
	GlobalOrient int `json:"global_orient"`
	BodyPose     int `json:"body_pose"`
}

// Total is the flattened row width D.
func (w Widths) Total() int {
	return w.Joints + w.Betas + w.GlobalOrient + w.BodyPose
}

// mismatch returns the name of the first component that differs, or "".
func (w Widths) mismatch(other Widths) (string, int, int) {
	switch {
	case w.Joints != other.Joints:
		return "joints", w.Joints, other.Joints
	case w.Betas != other.Betas:
		return "betas", w.Betas, other.Betas
	case w.GlobalOrient != other.GlobalOrient:
		return "global_orient", w.GlobalOrient, other.GlobalOrient
	case w.BodyPose != other.BodyPose:
		return "body_pose", w.BodyPose, other.BodyPose
	}
	return "", 0, 0
}

// document is the canonical on-disk form.
type document struct {
	Frames []Frame `json:"frames"`
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
