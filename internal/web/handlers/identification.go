package handlers

import (
	"net/http"

	"github.com/kozaktomas/gaitid/internal/identity"
)

// IdentificationHandler answers read-only identification queries.
type IdentificationHandler struct {
	resolver *identity.Resolver
}

// NewIdentificationHandler creates a new identification handler.
func NewIdentificationHandler(resolver *identity.Resolver) *IdentificationHandler {
	return &IdentificationHandler{resolver: resolver}
}

// Get compares the latest person against the rest of the store. Failures are
// part of the message, so the status is always 200.
func (h *IdentificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	report := h.resolver.Identify(r.Context())
	resp := map[string]any{
		"identification": report.Message(),
		"status":         report.Status,
	}
	if report.Status == identity.Identified {
		resp["person_id"] = report.PersonID
	}
	if report.Status == identity.Identified || report.Status == identity.NoMatch {
		resp["similarity"] = report.Similarity
	}
	respondJSON(w, http.StatusOK, resp)
}
