package videos

import (
	"context"

	"github.com/llumina/backend/internal/models"
)

// Provider returns inferred metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (models.VideoMetadata, error)
}

// Summarizer produces a prose summary for an already-captured video.
type Summarizer interface {
	Summarize(ctx context.Context, title, channelName string) (string, error)
}
