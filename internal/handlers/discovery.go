package handlers

import (
	"errors"
	"net/http"

	"github.com/llumina/backend/internal/library"
	"github.com/llumina/backend/internal/logging"
	"github.com/llumina/backend/internal/metrics"
)

// DiscoveryHandler serves related-content suggestions built from the current
// library.
type DiscoveryHandler struct {
	Library   LibraryService
	Discovery DiscoveryService
	Metrics   *metrics.Metrics
	Limiter   RateLimiter
}

// Discover handles GET /api/v1/discover.
func (h DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "discover") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many discovery requests"})
		return
	}

	if h.Metrics != nil {
		h.Metrics.DiscoveryRequests.Inc()
	}

	ctx, span := logging.StartSpan(ctx, "discover")
	suggestions, err := h.Discovery.Discover(ctx, h.Library.Snapshot().Videos)
	span.End()
	if err != nil {
		if errors.Is(err, library.ErrEmptyCorpus) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "add some videos before requesting suggestions"})
			return
		}
		logging.FromContext(ctx).Error("discovery failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to build suggestions"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
