package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/llumina/backend/internal/auth"
	"github.com/llumina/backend/internal/config"
	"github.com/llumina/backend/internal/genai"
	"github.com/llumina/backend/internal/handlers"
	"github.com/llumina/backend/internal/library"
	"github.com/llumina/backend/internal/metrics"
	"github.com/llumina/backend/internal/middleware"
	"github.com/llumina/backend/internal/schema"
	"github.com/llumina/backend/internal/storage"
	"github.com/llumina/backend/internal/videos"
)

// Inference endpoints bill per call, so their limits sit well below the
// general request rate.
const (
	addRequestsPerMinute      = 10
	discoverRequestsPerMinute = 4
	limiterBurst              = 3
	limiterTTL                = 10 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, cfg config.Config, blobs storage.BlobStore, logger *slog.Logger) (handlers.Dependencies, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return handlers.Dependencies{}, err
	}

	guard, err := auth.NewAccessGuard(cfg.AccessKey)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	client := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	gemini := videos.NewGeminiProvider(client, validator)
	provider := videos.NewCachingProvider(gemini, cfg.MetadataCacheTTL)

	store := storage.NewLibraryStore(blobs, validator, logger)
	engine := library.NewEngine(ctx, store, provider, gemini, logger)
	advisor := library.NewAdvisor(client, validator, logger)

	m := metrics.New()

	return handlers.Dependencies{
		Library:         engine,
		Discovery:       advisor,
		Guard:           guard,
		Metrics:         m,
		MetricsHandler:  m.Handler(),
		AddLimiter:      middleware.NewIPRateLimiter(addRequestsPerMinute, time.Minute, limiterBurst, limiterTTL),
		DiscoverLimiter: middleware.NewIPRateLimiter(discoverRequestsPerMinute, time.Minute, limiterBurst, limiterTTL),
	}, nil
}
