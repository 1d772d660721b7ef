package features

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load decodes frames from either the canonical {"frames": [...]} document
// or a raw top-level array of estimator records.
func Load(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading frame data: %w", err)
	}

	var frames []Frame
	if isArray(data) {
		if err := json.Unmarshal(data, &frames); err != nil {
			return nil, fmt.Errorf("%w: decoding raw frames: %w", ErrInvalidDocument, err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decoding frames document: %w", ErrInvalidDocument, err)
		}
		frames = doc.Frames
	}

	if len(frames) == 0 {
		return nil, ErrMissingFrameData
	}
	return frames, nil
}

// LoadFile reads frames from a JSON file on disk.
func LoadFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Preprocess rewrites a raw estimator dump into the canonical document with
// flat components, dropping vertices and camera translation.
func Preprocess(in io.Reader, out io.Writer) (int, error) {
	frames, err := Load(in)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	if err := enc.Encode(document{Frames: frames}); err != nil {
		return 0, fmt.Errorf("encoding frames document: %w", err)
	}
	return len(frames), nil
}
