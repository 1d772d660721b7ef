package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/gaitid/internal/database"
	"github.com/kozaktomas/gaitid/internal/signature"
)

// SignaturesHandler exposes metadata about stored signatures.
type SignaturesHandler struct {
	store  database.SignatureReader
	logger *slog.Logger
}

// NewSignaturesHandler creates a new signatures handler.
func NewSignaturesHandler(store database.SignatureReader, logger *slog.Logger) *SignaturesHandler {
	return &SignaturesHandler{store: store, logger: logger}
}

// SignatureResponse describes one stored entry without its payload.
type SignatureResponse struct {
	GaitID   int64 `json:"gait_id"`
	PersonID int64 `json:"person_id"`
	Values   int   `json:"values"`
	Rows     int   `json:"rows"`
}

func signatureResponse(e *database.Entry) SignatureResponse {
	return SignatureResponse{
		GaitID:   e.GaitID,
		PersonID: e.PersonID,
		Values:   e.Values(),
		Rows:     e.Values() / signature.RowWidth,
	}
}

// Latest returns the latest entry, by gait id or with ?by=person by person id.
func (h *SignaturesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	var (
		entry *database.Entry
		err   error
	)
	switch r.URL.Query().Get("by") {
	case "", "gait":
		entry, err = h.store.Latest(r.Context())
	case "person":
		entry, err = h.store.LatestByPerson(r.Context())
	default:
		respondError(w, http.StatusBadRequest, "by must be gait or person")
		return
	}
	if err != nil {
		h.logger.Error("latest signature query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read signatures")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "no gait signature stored")
		return
	}

	respondJSON(w, http.StatusOK, signatureResponse(entry))
}

// Count returns the number of stored entries.
func (h *SignaturesHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		h.logger.Error("signature count failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to count signatures")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}
