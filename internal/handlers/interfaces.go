package handlers

import (
	"context"
	"net/http"

	"github.com/llumina/backend/internal/library"
	"github.com/llumina/backend/internal/models"
)

// LibraryService captures the engine operations required by the HTTP surface.
type LibraryService interface {
	AddVideo(ctx context.Context, url string) (models.VideoRecord, bool, error)
	RemoveVideo(ctx context.Context, id string) error
	ToggleWatched(ctx context.Context, id string) (models.Status, error)
	MarkWatching(ctx context.Context, id string) (models.Status, error)
	FinishPlayback(ctx context.Context, id string) (models.Status, error)
	Reorder(ctx context.Context, from, to int, filter library.Filter) error
	FilteredView(filter library.Filter) []models.VideoRecord
	CategoryStatistics() []models.CategoryCount
	AssignCollection(ctx context.Context, videoID, collectionID string) error
	Collections() []models.Collection
	SaveCollections(ctx context.Context, collections []models.Collection) error
	Summarize(ctx context.Context, id string) (string, error)
	Snapshot() models.Snapshot
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) (models.Snapshot, error)
	SetActiveCollection(id string)
	Busy() bool
}

// DiscoveryService suggests related content for the current library.
type DiscoveryService interface {
	Discover(ctx context.Context, records []models.VideoRecord) ([]models.Suggestion, error)
}

// AccessChecker validates the shared access key on mutating requests.
type AccessChecker interface {
	Allow(r *http.Request) bool
}
