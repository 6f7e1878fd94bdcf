// Package library implements the orchestration core: the in-memory record
// sequence, its derived views, and the enrichment and discovery workflows
// around it.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/storage"
	"github.com/llumina/backend/internal/videos"
)

// GeneralCategory buckets records that carry no category in the statistics view.
const GeneralCategory = "General"

// Engine is the single source of truth for the in-memory library. Every
// mutation persists synchronously through the injected store before it is
// considered committed. Enrichment runs outside the lock, so concurrent adds
// overlap; each completion merges into the sequence as one read-modify-write
// step. The durable copy is last-writer-wins under concurrent adds, an
// accepted tradeoff for a single-user tool.
type Engine struct {
	store      *storage.LibraryStore
	provider   videos.Provider
	summarizer videos.Summarizer
	logger     *slog.Logger

	NowFunc func() time.Time
	IDFunc  func() string

	inFlight atomic.Int64

	mu               sync.Mutex
	videos           []models.VideoRecord
	collections      []models.Collection
	activeCollection string
}

// NewEngine constructs an engine and loads the persisted library state.
func NewEngine(ctx context.Context, store *storage.LibraryStore, provider videos.Provider, summarizer videos.Summarizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	snapshot := store.Load(ctx)

	return &Engine{
		store:            store,
		provider:         provider,
		summarizer:       summarizer,
		logger:           logger,
		NowFunc:          func() time.Time { return time.Now().UTC() },
		IDFunc:           uuid.NewString,
		videos:           snapshot.Videos,
		collections:      snapshot.Collections,
		activeCollection: models.DefaultCollectionID,
	}
}

// Busy reports whether at least one enrichment call is in flight, for the
// presentation layer's loading affordance.
func (e *Engine) Busy() bool {
	return e.inFlight.Load() > 0
}

// SetActiveCollection changes the collection newly added records fall into.
func (e *Engine) SetActiveCollection(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == "" {
		id = models.DefaultCollectionID
	}
	e.activeCollection = id
}

// AddVideo resolves, enriches and captures a URL. The returned bool is false
// when the resolved identifier already exists: a recoverable no-op, not an
// error, with the existing record returned. Enrichment failure leaves the
// library unchanged; the user retries by resubmitting.
func (e *Engine) AddVideo(ctx context.Context, url string) (models.VideoRecord, bool, error) {
	externalID, err := videos.ResolveID(url)
	if err != nil {
		return models.VideoRecord{}, false, err
	}

	e.mu.Lock()
	if existing, ok := e.findByExternalID(externalID); ok {
		e.mu.Unlock()
		return existing, false, nil
	}
	collectionID := e.activeCollection
	e.mu.Unlock()

	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	meta, err := e.provider.Lookup(ctx, url)
	if err != nil {
		return models.VideoRecord{}, false, fmt.Errorf("enrich %s: %w", url, err)
	}

	record := models.VideoRecord{
		ID:           e.IDFunc(),
		YouTubeID:    externalID,
		URL:          url,
		Metadata:     meta,
		Status:       models.StatusUnwatched,
		AddedAt:      e.NowFunc().UnixMilli(),
		CollectionID: collectionID,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A concurrent add for the same identifier may have won while enrichment
	// was suspended; re-check before merging.
	if existing, ok := e.findByExternalID(externalID); ok {
		return existing, false, nil
	}

	next := make([]models.VideoRecord, 0, len(e.videos)+1)
	next = append(next, record)
	next = append(next, e.videos...)

	if err := e.store.SaveVideos(ctx, next); err != nil {
		return models.VideoRecord{}, false, err
	}
	e.videos = next

	e.logger.Info("video captured", "videoId", record.ID, "youtubeId", externalID, "category", meta.Category)
	return record, true, nil
}

// RemoveVideo deletes the record with the given id. Absent ids are a no-op.
func (e *Engine) RemoveVideo(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := make([]models.VideoRecord, 0, len(e.videos)-1)
	next = append(next, e.videos[:idx]...)
	next = append(next, e.videos[idx+1:]...)

	if err := e.store.SaveVideos(ctx, next); err != nil {
		return err
	}
	e.videos = next
	return nil
}

// ToggleWatched flips a record between watched and unwatched. The transient
// watching state is owned by the playback signals and is left alone here.
func (e *Engine) ToggleWatched(ctx context.Context, id string) (models.Status, error) {
	return e.transition(ctx, id, func(s models.Status) models.Status {
		switch s {
		case models.StatusWatched:
			return models.StatusUnwatched
		case models.StatusUnwatched:
			return models.StatusWatched
		default:
			return s
		}
	})
}

// MarkWatching records that playback has started on an unwatched record.
func (e *Engine) MarkWatching(ctx context.Context, id string) (models.Status, error) {
	return e.transition(ctx, id, func(s models.Status) models.Status {
		if s == models.StatusUnwatched {
			return models.StatusWatching
		}
		return s
	})
}

// FinishPlayback handles the player's end-of-session callback. It only ever
// moves a record toward watched, never the reverse.
func (e *Engine) FinishPlayback(ctx context.Context, id string) (models.Status, error) {
	return e.transition(ctx, id, func(models.Status) models.Status {
		return models.StatusWatched
	})
}

func (e *Engine) transition(ctx context.Context, id string, next func(models.Status) models.Status) (models.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(id)
	if idx < 0 {
		return "", ErrVideoNotFound
	}

	status := next(e.videos[idx].Status)
	if status == e.videos[idx].Status {
		return status, nil
	}

	prev := e.videos[idx].Status
	e.videos[idx].Status = status
	if err := e.store.SaveVideos(ctx, e.videos); err != nil {
		e.videos[idx].Status = prev
		return "", err
	}
	return status, nil
}

// Reorder moves the element at from to position to within the unfiltered
// sequence. A non-identity filter context rejects the request outright,
// because filtered display indices do not map onto the true order. Equal or
// out-of-range indices are a no-op.
func (e *Engine) Reorder(ctx context.Context, from, to int, filter Filter) error {
	if !filter.IsIdentity() {
		return ErrFilteredReorder
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if from == to || from < 0 || to < 0 || from >= len(e.videos) || to >= len(e.videos) {
		return nil
	}

	next := make([]models.VideoRecord, 0, len(e.videos))
	next = append(next, e.videos[:from]...)
	next = append(next, e.videos[from+1:]...)
	next = append(next[:to], append([]models.VideoRecord{e.videos[from]}, next[to:]...)...)

	if err := e.store.SaveVideos(ctx, next); err != nil {
		return err
	}
	e.videos = next
	return nil
}

// FilteredView returns a read-only copy of the records matching the filter, in
// current sequence order. Dangling collection references are cleared in the
// copy rather than failing.
func (e *Engine) FilteredView(filter Filter) []models.VideoRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	known := e.knownCollections()

	out := make([]models.VideoRecord, 0, len(e.videos))
	for _, rec := range e.videos {
		if rec.CollectionID != "" && !known[rec.CollectionID] {
			rec.CollectionID = ""
		}
		if filter.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// CategoryStatistics counts records per category, descending by count, ties in
// first-encountered order. Records without a category count under General.
func (e *Engine) CategoryStatistics() []models.CategoryCount {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[string]int)
	var order []string
	for _, rec := range e.videos {
		cat := rec.Metadata.Category
		if cat == "" {
			cat = GeneralCategory
		}
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}

	stats := make([]models.CategoryCount, 0, len(order))
	for _, cat := range order {
		stats = append(stats, models.CategoryCount{Category: cat, Count: counts[cat]})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// AssignCollection moves a record into the given collection. The target is not
// required to exist; dangling references degrade on read instead of failing.
func (e *Engine) AssignCollection(ctx context.Context, videoID, collectionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(videoID)
	if idx < 0 {
		return ErrVideoNotFound
	}

	prev := e.videos[idx].CollectionID
	e.videos[idx].CollectionID = collectionID
	if err := e.store.SaveVideos(ctx, e.videos); err != nil {
		e.videos[idx].CollectionID = prev
		return err
	}
	return nil
}

// Collections lists the collection set in insertion order.
func (e *Engine) Collections() []models.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Collection, len(e.collections))
	copy(out, e.collections)
	return out
}

// SaveCollections replaces the collection set.
func (e *Engine) SaveCollections(ctx context.Context, collections []models.Collection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.SaveCollections(ctx, collections); err != nil {
		return err
	}
	e.collections = collections
	return nil
}

// Summarize lazily populates the record's summary via the inference provider,
// persisting the result so subsequent calls are served from the library.
func (e *Engine) Summarize(ctx context.Context, id string) (string, error) {
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return "", ErrVideoNotFound
	}
	if summary := e.videos[idx].Metadata.Summary; summary != "" {
		e.mu.Unlock()
		return summary, nil
	}
	title := e.videos[idx].Metadata.Title
	channel := e.videos[idx].Metadata.ChannelName
	e.mu.Unlock()

	if e.summarizer == nil {
		return "", videos.ErrProviderUnavailable
	}

	summary, err := e.summarizer.Summarize(ctx, title, channel)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx = e.indexOf(id)
	if idx < 0 {
		// Removed while the summary was in flight; drop the late result.
		return summary, nil
	}
	prev := e.videos[idx].Metadata.Summary
	e.videos[idx].Metadata.Summary = summary
	if err := e.store.SaveVideos(ctx, e.videos); err != nil {
		e.videos[idx].Metadata.Summary = prev
		return "", err
	}
	return summary, nil
}

// Snapshot copies the complete current state, for export and discovery.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := models.Snapshot{
		Videos:      make([]models.VideoRecord, len(e.videos)),
		Collections: make([]models.Collection, len(e.collections)),
	}
	copy(snapshot.Videos, e.videos)
	copy(snapshot.Collections, e.collections)
	return snapshot
}

// Export serializes the current library into the portable blob shape.
func (e *Engine) Export() ([]byte, error) {
	return e.store.Export(e.Snapshot())
}

// Import applies an export blob and re-syncs the in-memory state with what the
// store persisted. A malformed payload leaves both untouched.
func (e *Engine) Import(ctx context.Context, data []byte) (models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot, err := e.store.Import(ctx, data)
	if err != nil {
		return models.Snapshot{}, err
	}

	e.videos = snapshot.Videos
	e.collections = snapshot.Collections
	return snapshot, nil
}

// callers must hold e.mu
func (e *Engine) indexOf(id string) int {
	for i := range e.videos {
		if e.videos[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findByExternalID(externalID string) (models.VideoRecord, bool) {
	for i := range e.videos {
		if e.videos[i].YouTubeID == externalID {
			return e.videos[i], true
		}
	}
	return models.VideoRecord{}, false
}

func (e *Engine) knownCollections() map[string]bool {
	known := make(map[string]bool, len(e.collections))
	for _, c := range e.collections {
		known[c.ID] = true
	}
	return known
}
