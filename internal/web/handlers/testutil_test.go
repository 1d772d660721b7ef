package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/gaitid/internal/database/mock"
	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/features"
	"github.com/kozaktomas/gaitid/internal/gait"
	"github.com/kozaktomas/gaitid/internal/identity"
)

// testEngine creates a fast engine backed by store
func testEngine(store *mock.MockSignatureStore) *gait.Engine {
	opts := encoder.DefaultOptions()
	opts.Epochs = 3
	opts.BatchSize = 4
	opts.Bottleneck = 8
	return gait.NewEngine(opts, identity.NewResolver(store, identity.DefaultThreshold, nil), nil)
}

// framesJSON builds a canonical frames document with n frames
func framesJSON(t *testing.T, n int) string {
	t.Helper()
	frames := make([]features.Frame, n)
	for i := range frames {
		x := float64(i) * 0.1
		frames[i] = features.Frame{
			Joints:       features.Vector{x, x * 2, -x},
			Betas:        features.Vector{0.1, 0.2},
			GlobalOrient: features.Vector{1, x, 0},
			BodyPose:     features.Vector{x * x, 0.5},
		}
	}
	data, err := json.Marshal(map[string]any{"frames": frames})
	if err != nil {
		t.Fatalf("failed to marshal frames: %v", err)
	}
	return string(data)
}

// waitForJob polls until the job reaches a terminal state
func waitForJob(t *testing.T, jm *JobManager, id string) RunState {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job := jm.GetJob(id)
		if job == nil {
			t.Fatalf("job %s not found", id)
		}
		if state := job.Snapshot(); isJobTerminal(state.Status) {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return RunState{}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
