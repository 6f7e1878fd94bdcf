package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/schema"
)

// ExportVersion labels export blobs so future readers can adapt.
const ExportVersion = "2.0"

// ErrMalformedImport indicates an import payload that does not decode as a
// well-formed export object. The store is left untouched.
var ErrMalformedImport = errors.New("malformed import payload")

// LibraryStore owns the durable copy of the library: the video sequence and
// the collection set, stored under independent keys of a BlobStore.
type LibraryStore struct {
	blobs     BlobStore
	validator *schema.Validator
	logger    *slog.Logger
}

// NewLibraryStore wraps a blob store with library-level serialization.
func NewLibraryStore(blobs BlobStore, validator *schema.Validator, logger *slog.Logger) *LibraryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryStore{blobs: blobs, validator: validator, logger: logger}
}

// Load reads the persisted snapshot. It never fails: a missing or corrupt
// video blob degrades to an empty sequence and a missing or corrupt collection
// blob to the default-seeded set. Corruption is logged for diagnostics only.
func (s *LibraryStore) Load(ctx context.Context) models.Snapshot {
	snapshot := models.Snapshot{
		Videos:      []models.VideoRecord{},
		Collections: models.DefaultCollections(),
	}

	if data, err := s.blobs.Get(ctx, KeyVideos); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read video blob", "error", err)
		}
	} else {
		var videos []models.VideoRecord
		if err := json.Unmarshal(data, &videos); err != nil {
			s.logger.Warn("corrupt video blob, starting empty", "error", err)
		} else {
			snapshot.Videos = videos
		}
	}

	if data, err := s.blobs.Get(ctx, KeyCollections); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read collection blob", "error", err)
		}
	} else {
		var collections []models.Collection
		if err := json.Unmarshal(data, &collections); err != nil {
			s.logger.Warn("corrupt collection blob, using defaults", "error", err)
		} else {
			snapshot.Collections = collections
		}
	}

	return snapshot
}

// Save persists both library keys.
func (s *LibraryStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	if err := s.SaveVideos(ctx, snapshot.Videos); err != nil {
		return err
	}
	return s.SaveCollections(ctx, snapshot.Collections)
}

// SaveVideos persists the ordered video sequence.
func (s *LibraryStore) SaveVideos(ctx context.Context, videos []models.VideoRecord) error {
	if videos == nil {
		videos = []models.VideoRecord{}
	}
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("encode video sequence: %w", err)
	}
	if err := s.blobs.Put(ctx, KeyVideos, data); err != nil {
		return fmt.Errorf("persist video sequence: %w", err)
	}
	return nil
}

// SaveCollections persists the collection set.
func (s *LibraryStore) SaveCollections(ctx context.Context, collections []models.Collection) error {
	if collections == nil {
		collections = []models.Collection{}
	}
	data, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("encode collection set: %w", err)
	}
	if err := s.blobs.Put(ctx, KeyCollections, data); err != nil {
		return fmt.Errorf("persist collection set: %w", err)
	}
	return nil
}

type exportBlob struct {
	Videos      []models.VideoRecord `json:"videos"`
	Collections []models.Collection  `json:"collections"`
	Version     string               `json:"version"`
	Timestamp   int64                `json:"timestamp"`
}

// Export serializes the snapshot into the portable export shape.
func (s *LibraryStore) Export(snapshot models.Snapshot) ([]byte, error) {
	blob := exportBlob{
		Videos:      snapshot.Videos,
		Collections: snapshot.Collections,
		Version:     ExportVersion,
		Timestamp:   time.Now().UnixMilli(),
	}
	if blob.Videos == nil {
		blob.Videos = []models.VideoRecord{}
	}
	if blob.Collections == nil {
		blob.Collections = []models.Collection{}
	}

	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export blob: %w", err)
	}
	return data, nil
}

// Import applies an export blob to the store. The whole payload must decode as
// a well-formed JSON object or the store is left untouched; within a valid
// payload either key may be absent and only the present keys are applied.
// It returns the snapshot as persisted after the import.
func (s *LibraryStore) Import(ctx context.Context, data []byte) (models.Snapshot, error) {
	if s.validator != nil {
		if err := s.validator.ValidateImport(data); err != nil {
			return models.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
	}

	var payload struct {
		Videos      *[]models.VideoRecord `json:"videos"`
		Collections *[]models.Collection  `json:"collections"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	current := s.Load(ctx)

	if payload.Videos != nil {
		if err := s.SaveVideos(ctx, *payload.Videos); err != nil {
			return models.Snapshot{}, err
		}
		current.Videos = *payload.Videos
	}
	if payload.Collections != nil {
		if err := s.SaveCollections(ctx, *payload.Collections); err != nil {
			return models.Snapshot{}, err
		}
		current.Collections = *payload.Collections
	}

	return current, nil
}
