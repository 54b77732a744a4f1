// Package httpapi exposes the listing service over JSON HTTP.
//
// Public routes serve the job board; /admin routes sit behind the access
// gate and drive the create/update workflow.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carikerja/listing-service/internal/auth"
	"carikerja/listing-service/internal/listing"
)

// Handler holds shared dependencies for all routes.
type Handler struct {
	engine    *listing.QueryEngine
	mutations *listing.MutationService
	manager   *auth.Manager
	logger    *slog.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(engine *listing.QueryEngine, mutations *listing.MutationService, manager *auth.Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, mutations: mutations, manager: manager, logger: logger}
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(h *Handler, signInPath string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	r.Get("/health", h.health)

	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/session", h.session)

	r.Get("/categories", h.listCategories)
	r.Get("/jobs", h.listJobs)
	r.Get("/jobs/{id}", h.getJob)
	r.Get("/articles", h.listArticles)
	r.Get("/articles/{id}", h.getArticle)

	r.Group(func(r chi.Router) {
		r.Use(auth.Gate(h.manager, signInPath))
		r.Get("/admin/jobs", h.adminListJobs)
		r.Post("/admin/jobs", h.createJob)
		r.Put("/admin/jobs/{id}", h.updateJob)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok", "service": "listing-service"})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
