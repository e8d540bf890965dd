package routes

import (
	"net/http"

	"github.com/zatekoja/medbackoffice/internal/api/handlers"
	"github.com/zatekoja/medbackoffice/internal/api/middleware"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	entityHandler  *handlers.EntityHandler
	sessionHandler *handlers.SessionHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	entityHandler *handlers.EntityHandler,
	sessionHandler *handlers.SessionHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		entityHandler:  entityHandler,
		sessionHandler: sessionHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Registry and lookup lists
	r.mux.HandleFunc("GET /api/entities", r.entityHandler.ListEntities)
	r.mux.HandleFunc("GET /api/lookups", r.entityHandler.Lookups)

	// List sessions
	s := r.sessionHandler
	r.mux.HandleFunc("POST /api/sessions", s.Open)
	r.mux.HandleFunc("GET /api/sessions/{id}", s.Get)
	r.mux.HandleFunc("DELETE /api/sessions/{id}", s.Close)
	r.mux.HandleFunc("POST /api/sessions/{id}/refresh", s.Refresh)
	r.mux.HandleFunc("PUT /api/sessions/{id}/filters", s.SetFilters)
	r.mux.HandleFunc("DELETE /api/sessions/{id}/filters", s.ResetFilters)
	r.mux.HandleFunc("POST /api/sessions/{id}/sort/{key}", s.Sort)
	r.mux.HandleFunc("PUT /api/sessions/{id}/page", s.SetPage)
	r.mux.HandleFunc("PUT /api/sessions/{id}/view-mode", s.SetViewMode)
	r.mux.HandleFunc("GET /api/sessions/{id}/export", s.Export)

	// Selection and bulk actions
	r.mux.HandleFunc("POST /api/sessions/{id}/selection/mode", s.SetSelectionMode)
	r.mux.HandleFunc("POST /api/sessions/{id}/selection/all", s.SelectAll)
	r.mux.HandleFunc("POST /api/sessions/{id}/selection/items/{itemID}", s.ToggleSelection)
	r.mux.HandleFunc("POST /api/sessions/{id}/bulk-delete", s.BulkDelete)

	// Dialog
	r.mux.HandleFunc("POST /api/sessions/{id}/edit", s.Edit)
	r.mux.HandleFunc("POST /api/sessions/{id}/create", s.Create)
	r.mux.HandleFunc("POST /api/sessions/{id}/dialog/submit", s.Submit)
	r.mux.HandleFunc("POST /api/sessions/{id}/dialog/close", s.CloseDialog)

	// CORS wraps everything so preflight requests never reach the mux.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)
	return handler
}
