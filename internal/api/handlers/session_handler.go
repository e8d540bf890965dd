package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/medbackoffice/internal/application/services"
	"github.com/zatekoja/medbackoffice/internal/catalog"
	"github.com/zatekoja/medbackoffice/internal/export"
	"github.com/zatekoja/medbackoffice/internal/listing"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

// SessionHandler drives list sessions over HTTP.
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type openSessionRequest struct {
	Entity string `json:"entity"`
	UserID string `json:"user_id"`
}

type pageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type viewModeRequest struct {
	Mode catalog.ViewMode `json:"mode"`
}

type selectionModeRequest struct {
	Active bool `json:"active"`
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return sess, true
}

// Open handles POST /api/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Entity) == "" {
		respondWithError(w, http.StatusBadRequest, "entity is required")
		return
	}

	sess, err := h.sessions.Open(r.Context(), req.Entity, req.UserID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sess.View())
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// Close handles DELETE /api/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/sessions/{id}/refresh. A failed refresh is reported
// in the view, which keeps showing any stale data.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = sess.Tab().Fetch(r.Context(), true)
	respondWithJSON(w, http.StatusOK, sess.View())
}

// SetFilters handles PUT /api/sessions/{id}/filters
func (h *SessionHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if err := decodeBody(w, r, &values); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	sess.SetFilters(r.Context(), values)
	respondWithJSON(w, http.StatusOK, sess.View())
}

// ResetFilters handles DELETE /api/sessions/{id}/filters
func (h *SessionHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.ResetFilters(r.Context())
	respondWithJSON(w, http.StatusOK, sess.View())
}

// Sort handles POST /api/sessions/{id}/sort/{key}
func (h *SessionHandler) Sort(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.SortBy(r.Context(), r.PathValue("key")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// SetPage handles PUT /api/sessions/{id}/page
func (h *SessionHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req pageRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.PageSize != 0 {
		if err := sess.Tab().SetPageSize(req.PageSize); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}
	if req.Page != 0 {
		sess.Tab().SetPage(req.Page)
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// SetViewMode handles PUT /api/sessions/{id}/view-mode
func (h *SessionHandler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req viewModeRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := sess.SetViewMode(r.Context(), req.Mode); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// SetSelectionMode handles POST /api/sessions/{id}/selection/mode
func (h *SessionHandler) SetSelectionMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectionModeRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	sess.Tab().SetSelectionMode(req.Active)
	respondWithJSON(w, http.StatusOK, sess.View())
}

// ToggleSelection handles POST /api/sessions/{id}/selection/items/{itemID}
func (h *SessionHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Tab().ToggleSelection(r.PathValue("itemID"))
	respondWithJSON(w, http.StatusOK, sess.View())
}

// SelectAll handles POST /api/sessions/{id}/selection/all
func (h *SessionHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.SelectAll()
	respondWithJSON(w, http.StatusOK, sess.View())
}

// BulkDelete handles POST /api/sessions/{id}/bulk-delete
func (h *SessionHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result, err := sess.Tab().BulkDelete(r.Context())
	if err != nil && result.Requested == 0 {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"session": sess.View(),
	})
}

// Edit handles POST /api/sessions/{id}/edit
func (h *SessionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	outcome, err := sess.Tab().Edit(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome,
		"session": sess.View(),
	})
}

// Create handles POST /api/sessions/{id}/create
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Tab().Create(); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// Submit handles POST /api/sessions/{id}/dialog/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if len(raw) == 0 {
		respondWithError(w, http.StatusBadRequest, "record is required")
		return
	}

	saved, err := sess.Tab().Submit(r.Context(), raw)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"record":  saved,
		"session": sess.View(),
	})
}

// CloseDialog handles POST /api/sessions/{id}/dialog/close
func (h *SessionHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Tab().CloseDialog(r.Context()); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess.View())
}

// Export handles GET /api/sessions/{id}/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if sess.Tab().State() == listing.StateIdle {
		if err := sess.Tab().Fetch(r.Context(), false); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}

	data, err := sess.Tab().Export()
	if err != nil {
		respondWithAppError(w, r, apperrors.NewInternalError("failed to build export", err))
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", sess.Info().Slug, time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
