package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/lookup"
)

// EntityHandler serves the screen registry and the shared lookup lists.
type EntityHandler struct {
	lookups *lookup.Loader
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(lookups *lookup.Loader) *EntityHandler {
	return &EntityHandler{lookups: lookups}
}

// ListEntities handles GET /api/entities
func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"entities": catalog.All(),
	})
}

// Lookups handles GET /api/lookups
func (h *EntityHandler) Lookups(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	lists, err := h.lookups.Load(r.Context(), force)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lists)
}
