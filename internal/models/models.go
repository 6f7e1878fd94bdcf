package models

// Status tracks how far a viewer has progressed through a saved video.
type Status string

const (
	StatusUnwatched Status = "unwatched"
	StatusWatching  Status = "watching"
	StatusWatched   Status = "watched"
)

// DefaultCollectionID is the well-known collection new records fall into.
const DefaultCollectionID = "default"

// VideoMetadata holds the descriptive fields inferred for a saved link.
type VideoMetadata struct {
	Title        string   `json:"title"`
	ChannelName  string   `json:"channelName"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Duration     string   `json:"duration,omitempty"`
	PublishedAt  string   `json:"publishedAt,omitempty"`
	IsAudioOnly  bool     `json:"isAudioOnly,omitempty"`
	Category     string   `json:"category,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// VideoRecord is a single captured link in the library.
//
// ID and YouTubeID are immutable after creation; YouTubeID is unique across
// live records (enforced by the engine, not the store). AddedAt is metadata
// only: display order is the explicit sequence position, never derived from
// the timestamp once the user reorders.
type VideoRecord struct {
	ID           string        `json:"id"`
	YouTubeID    string        `json:"youtubeId"`
	URL          string        `json:"url"`
	Metadata     VideoMetadata `json:"metadata"`
	Status       Status        `json:"status"`
	AddedAt      int64         `json:"addedAt"`
	CollectionID string        `json:"collectionId,omitempty"`
}

// Collection is a named grouping of records, analogous to a folder.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// DefaultCollections seeds a fresh library with the stock groupings.
func DefaultCollections() []Collection {
	return []Collection{
		{ID: DefaultCollectionID, Name: "General Intelligence", Icon: "brain"},
		{ID: "research", Name: "Technical Research", Icon: "microscope"},
		{ID: "aesthetic", Name: "Aesthetic Inspiration", Icon: "sparkles"},
		{ID: "archive", Name: "Deep Archive", Icon: "archive"},
	}
}

// Snapshot is the complete library state at a point in time. Video order is
// significant; collection order is preserved for stable listings.
type Snapshot struct {
	Videos      []VideoRecord `json:"videos"`
	Collections []Collection  `json:"collections"`
}

// CategoryCount pairs a category label with the number of records carrying it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Suggestion is a related-content recommendation from the discovery advisor.
type Suggestion struct {
	Title   string `json:"title"`
	Creator string `json:"creator"`
	URL     string `json:"url"`
}
