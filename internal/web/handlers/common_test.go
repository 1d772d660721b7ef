package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/features"
	"github.com/kozaktomas/gaitid/internal/identity"
)

func TestRespondJSON_SetsContentTypeAndStatus(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusAccepted, map[string]string{"status": "ok"})

	assertStatusCode(t, recorder, http.StatusAccepted)
	assertContentType(t, recorder, "application/json")
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	// Body should be empty for nil data
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusUnprocessableEntity, "something went wrong")

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "something went wrong")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing frames", features.ErrMissingFrameData, http.StatusUnprocessableEntity},
		{"invalid document", fmt.Errorf("%w: bad json", features.ErrInvalidDocument), http.StatusUnprocessableEntity},
		{"dimension", &features.DimensionError{Frame: 1, Component: "joints", Want: 3, Got: 2}, http.StatusUnprocessableEntity},
		{"too small", encoder.ErrTrainingDataTooSmall, http.StatusUnprocessableEntity},
		{"store", &identity.StoreWriteError{Err: errors.New("locked")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Errorf("statusForError() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("line\nbreak\r"); got != "linebreak" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestHealthCheck_ReturnsStatusOk(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}
