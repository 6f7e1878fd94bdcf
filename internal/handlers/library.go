package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/llumina/backend/internal/library"
	"github.com/llumina/backend/internal/logging"
	"github.com/llumina/backend/internal/metrics"
	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/storage"
	"github.com/llumina/backend/internal/videos"
)

// maxImportSize caps import payloads to keep a stray upload from exhausting
// memory.
const maxImportSize = 16 << 20

// LibraryHandler exposes the library engine over HTTP.
type LibraryHandler struct {
	Library    LibraryService
	Metrics    *metrics.Metrics
	AddLimiter RateLimiter
}

type addVideoRequest struct {
	URL string `json:"url"`
}

// Add handles POST /api/v1/videos.
func (h LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.AddLimiter, r, "add") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many capture requests"})
		return
	}

	var req addVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	ctx, span := logging.StartSpan(ctx, "add_video")
	record, added, err := h.Library.AddVideo(ctx, req.URL)
	span.End()
	if err != nil {
		switch {
		case errors.Is(err, videos.ErrInvalidSource):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video source"})
		case errors.Is(err, videos.ErrMalformedResponse), errors.Is(err, videos.ErrProviderUnavailable):
			h.countEnrichmentFailure()
			logger.Error("enrichment failed", "url", req.URL, "error", err)
			respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "metadata enrichment failed, try again"})
		default:
			logger.Error("add video failed", "url", req.URL, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		}
		return
	}

	if !added {
		if h.Metrics != nil {
			h.Metrics.DuplicateAdds.Inc()
		}
		respondJSON(ctx, w, http.StatusOK, map[string]any{"duplicate": true, "video": record})
		return
	}

	if h.Metrics != nil {
		h.Metrics.VideosAdded.Inc()
	}
	respondJSON(ctx, w, http.StatusCreated, map[string]any{"video": record})
}

// List handles GET /api/v1/videos.
func (h LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view := h.Library.FilteredView(filterFromQuery(r))
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos": view,
		"busy":   h.Library.Busy(),
	})
}

// Remove handles DELETE /api/v1/videos/{id}.
func (h LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Library.RemoveVideo(ctx, r.PathValue("id")); err != nil {
		logging.FromContext(ctx).Error("remove video failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to remove video"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

// Toggle handles POST /api/v1/videos/{id}/toggle.
func (h LibraryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.respondStatusChange(w, r, h.Library.ToggleWatched)
}

// Watching handles POST /api/v1/videos/{id}/watching, the player's
// playback-started signal.
func (h LibraryHandler) Watching(w http.ResponseWriter, r *http.Request) {
	h.respondStatusChange(w, r, h.Library.MarkWatching)
}

// Finished handles POST /api/v1/videos/{id}/finished, the player's single
// end-of-session callback.
func (h LibraryHandler) Finished(w http.ResponseWriter, r *http.Request) {
	h.respondStatusChange(w, r, h.Library.FinishPlayback)
}

func (h LibraryHandler) respondStatusChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (models.Status, error)) {
	ctx := r.Context()

	status, err := op(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, library.ErrVideoNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("status change failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update status"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"status": status})
}

// Summary handles POST /api/v1/videos/{id}/summary.
func (h LibraryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ctx, span := logging.StartSpan(ctx, "summarize_video")
	summary, err := h.Library.Summarize(ctx, r.PathValue("id"))
	span.End()
	if err != nil {
		switch {
		case errors.Is(err, library.ErrVideoNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		case errors.Is(err, videos.ErrProviderUnavailable):
			respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "summary unavailable, try again"})
		default:
			logging.FromContext(ctx).Error("summarize failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to summarize video"})
		}
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"summary": summary})
}

type assignCollectionRequest struct {
	CollectionID string `json:"collectionId"`
}

// Assign handles POST /api/v1/videos/{id}/collection.
func (h LibraryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assignCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Library.AssignCollection(ctx, r.PathValue("id"), req.CollectionID); err != nil {
		if errors.Is(err, library.ErrVideoNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("assign collection failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to assign collection"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "assigned"})
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Reorder handles POST /api/v1/videos/reorder. The request carries the active
// filter context as query parameters; a non-identity filter is rejected
// because the indices would not map onto the true sequence.
func (h LibraryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Library.Reorder(ctx, req.From, req.To, filterFromQuery(r)); err != nil {
		if errors.Is(err, library.ErrFilteredReorder) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "cannot reorder while a filter is active"})
			return
		}
		logging.FromContext(ctx).Error("reorder failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to reorder"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "reordered"})
}

// Stats handles GET /api/v1/stats/categories.
func (h LibraryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"categories": h.Library.CategoryStatistics(),
	})
}

// Collections handles GET /api/v1/collections.
func (h LibraryHandler) Collections(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"collections": h.Library.Collections(),
	})
}

type saveCollectionsRequest struct {
	Collections []models.Collection `json:"collections"`
}

// SaveCollections handles PUT /api/v1/collections, replacing the collection
// set wholesale. Records pointing at a removed collection degrade to
// uncollected on read; nothing is cascaded.
func (h LibraryHandler) SaveCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveCollectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Collections) == 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "at least one collection is required"})
		return
	}

	if err := h.Library.SaveCollections(ctx, req.Collections); err != nil {
		logging.FromContext(ctx).Error("save collections failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save collections"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"collections": req.Collections})
}

type activeCollectionRequest struct {
	CollectionID string `json:"collectionId"`
}

// SetActive handles POST /api/v1/collections/active.
func (h LibraryHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req activeCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.Library.SetActiveCollection(req.CollectionID)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Export handles GET /api/v1/export.
func (h LibraryHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := h.Library.Export()
	if err != nil {
		logging.FromContext(ctx).Error("export failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to export library"})
		return
	}

	filename := fmt.Sprintf("llumina-vault-export-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/v1/import.
func (h LibraryHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unable to read import payload"})
		return
	}

	snapshot, err := h.Library.Import(ctx, data)
	if err != nil {
		if errors.Is(err, storage.ErrMalformedImport) {
			if h.Metrics != nil {
				h.Metrics.ImportsRejected.Inc()
			}
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "malformed import payload"})
			return
		}
		logging.FromContext(ctx).Error("import failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to import library"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos":      len(snapshot.Videos),
		"collections": len(snapshot.Collections),
	})
}

func (h LibraryHandler) countEnrichmentFailure() {
	if h.Metrics != nil {
		h.Metrics.EnrichmentFailures.Inc()
	}
}

func filterFromQuery(r *http.Request) library.Filter {
	q := r.URL.Query()
	return library.Filter{
		Query:        q.Get("q"),
		Status:       q.Get("status"),
		CollectionID: q.Get("collection"),
	}
}
