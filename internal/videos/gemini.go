package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/llumina/backend/internal/genai"
	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/schema"
)

// Generator is the subset of the Gemini client used for enrichment.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, s genai.Schema) ([]byte, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

var metadataResponseSchema = genai.Schema{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"channelName": map[string]any{"type": "string"},
		"duration":    map[string]any{"type": "string"},
		"category":    map[string]any{"type": "string"},
	},
	"required": []string{"title", "channelName"},
}

// Defaults applied when the provider omits optional fields.
const (
	fallbackTitle    = "Unknown Video"
	fallbackChannel  = "Unknown Channel"
	fallbackDuration = "0:00"
	fallbackCategory = "Unsorted"
)

// GeminiProvider infers video metadata by asking the Gemini API about a URL.
// The thumbnail is always derived locally from the resolved identifier and the
// audio-only flag from the input host; neither is trusted from model output.
type GeminiProvider struct {
	client    Generator
	validator *schema.Validator
}

// NewGeminiProvider constructs a metadata provider backed by the given client.
func NewGeminiProvider(client Generator, validator *schema.Validator) *GeminiProvider {
	return &GeminiProvider{client: client, validator: validator}
}

// Lookup asks the model for descriptive metadata for the URL. It does not
// retry: resubmitting the same URL is the caller's recovery path.
func (p *GeminiProvider) Lookup(ctx context.Context, rawURL string) (models.VideoMetadata, error) {
	if p == nil || p.client == nil {
		return models.VideoMetadata{}, ErrProviderUnavailable
	}

	id, err := ResolveID(rawURL)
	if err != nil {
		return models.VideoMetadata{}, err
	}

	prompt := fmt.Sprintf(
		"Extract or infer video metadata for this YouTube URL: %s. "+
			"Even if you can't access live data, provide a reasonable title, channel name, "+
			"duration and topical category based on the URL context or patterns.", rawURL)

	out, err := p.client.GenerateJSON(ctx, prompt, metadataResponseSchema)
	if err != nil {
		if errors.Is(err, genai.ErrEmptyResponse) {
			return models.VideoMetadata{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return models.VideoMetadata{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if p.validator != nil {
		if err := p.validator.ValidateMetadata(out); err != nil {
			return models.VideoMetadata{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	var payload struct {
		Title       string `json:"title"`
		ChannelName string `json:"channelName"`
		Duration    string `json:"duration"`
		Category    string `json:"category"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return models.VideoMetadata{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	meta := models.VideoMetadata{
		Title:        payload.Title,
		ChannelName:  payload.ChannelName,
		Duration:     payload.Duration,
		Category:     payload.Category,
		ThumbnailURL: ThumbnailURL(id),
		IsAudioOnly:  isAudioOnlyHost(rawURL),
	}
	if meta.Title == "" {
		meta.Title = fallbackTitle
	}
	if meta.ChannelName == "" {
		meta.ChannelName = fallbackChannel
	}
	if meta.Duration == "" {
		meta.Duration = fallbackDuration
	}
	if meta.Category == "" {
		meta.Category = fallbackCategory
	}

	return meta, nil
}

// Summarize asks the model for a short synthesis of an already-captured video.
func (p *GeminiProvider) Summarize(ctx context.Context, title, channelName string) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrProviderUnavailable
	}

	prompt := fmt.Sprintf(
		"Provide a concise analytical summary of the likely content of the video %q by %q. "+
			"Focus on key concepts and takeaways in a few short paragraphs.", title, channelName)

	text, err := p.client.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return text, nil
}

// ThumbnailURL derives the preview image address for a resolved identifier.
func ThumbnailURL(id string) string {
	return fmt.Sprintf(thumbnailTemplate, id)
}

func isAudioOnlyHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Host
	if host == "" {
		// Bare "music.youtube.com/watch?v=..." inputs parse without a host.
		host = rawURL
	}
	return strings.Contains(strings.ToLower(host), "music.youtube.")
}
