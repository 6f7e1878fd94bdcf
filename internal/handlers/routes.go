package handlers

import (
	"net/http"

	"github.com/llumina/backend/internal/metrics"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	lib := LibraryHandler{Library: deps.Library, Metrics: deps.Metrics, AddLimiter: deps.AddLimiter}
	discover := DiscoveryHandler{Library: deps.Library, Discovery: deps.Discovery, Metrics: deps.Metrics, Limiter: deps.DiscoverLimiter}

	guarded := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAccess(deps.Guard, next)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("GET /api/v1/videos", lib.List)
	mux.HandleFunc("POST /api/v1/videos", guarded(lib.Add))
	mux.HandleFunc("DELETE /api/v1/videos/{id}", guarded(lib.Remove))
	mux.HandleFunc("POST /api/v1/videos/{id}/toggle", guarded(lib.Toggle))
	mux.HandleFunc("POST /api/v1/videos/{id}/watching", guarded(lib.Watching))
	mux.HandleFunc("POST /api/v1/videos/{id}/finished", guarded(lib.Finished))
	mux.HandleFunc("POST /api/v1/videos/{id}/summary", guarded(lib.Summary))
	mux.HandleFunc("POST /api/v1/videos/{id}/collection", guarded(lib.Assign))
	mux.HandleFunc("POST /api/v1/videos/reorder", guarded(lib.Reorder))

	mux.HandleFunc("GET /api/v1/stats/categories", lib.Stats)
	mux.HandleFunc("GET /api/v1/collections", lib.Collections)
	mux.HandleFunc("PUT /api/v1/collections", guarded(lib.SaveCollections))
	mux.HandleFunc("POST /api/v1/collections/active", guarded(lib.SetActive))

	mux.HandleFunc("GET /api/v1/discover", discover.Discover)
	mux.HandleFunc("GET /api/v1/export", lib.Export)
	mux.HandleFunc("POST /api/v1/import", guarded(lib.Import))

	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}
}

func requireAccess(guard AccessChecker, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if guard != nil && !guard.Allow(r) {
			respondJSON(r.Context(), w, http.StatusUnauthorized, map[string]string{"error": "invalid access key"})
			return
		}
		next(w, r)
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Library         LibraryService
	Discovery       DiscoveryService
	Guard           AccessChecker
	Metrics         *metrics.Metrics
	MetricsHandler  http.Handler
	AddLimiter      RateLimiter
	DiscoverLimiter RateLimiter
}
