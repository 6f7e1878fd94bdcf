package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/llumina/backend/internal/models"
)

type providerStub struct {
	metadata models.VideoMetadata
	err      error
	calls    int
}

func (p *providerStub) Lookup(ctx context.Context, url string) (models.VideoMetadata, error) {
	p.calls++
	if p.err != nil {
		return models.VideoMetadata{}, p.err
	}
	return p.metadata, nil
}

func TestCachingProviderServesFromCache(t *testing.T) {
	base := &providerStub{metadata: models.VideoMetadata{Title: "Cached"}}
	cache := NewCachingProvider(base, time.Minute)

	for i := 0; i < 3; i++ {
		meta, err := cache.Lookup(context.Background(), "https://youtu.be/abc123XYZ")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if meta.Title != "Cached" {
			t.Fatalf("lookup %d: unexpected metadata %+v", i, meta)
		}
	}

	if base.calls != 1 {
		t.Fatalf("expected one provider call, got %d", base.calls)
	}
}

func TestCachingProviderDistinctKeys(t *testing.T) {
	base := &providerStub{metadata: models.VideoMetadata{Title: "Cached"}}
	cache := NewCachingProvider(base, time.Minute)

	if _, err := cache.Lookup(context.Background(), "https://youtu.be/one"); err != nil {
		t.Fatalf("lookup one: %v", err)
	}
	if _, err := cache.Lookup(context.Background(), "https://youtu.be/two"); err != nil {
		t.Fatalf("lookup two: %v", err)
	}

	if base.calls != 2 {
		t.Fatalf("expected a provider call per key, got %d", base.calls)
	}
}

func TestCachingProviderDoesNotCacheFailures(t *testing.T) {
	base := &providerStub{err: errors.New("boom")}
	cache := NewCachingProvider(base, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.Lookup(context.Background(), "https://youtu.be/abc123XYZ"); err == nil {
			t.Fatalf("lookup %d: expected error", i)
		}
	}

	if base.calls != 2 {
		t.Fatalf("expected failed lookups to bypass the cache, got %d calls", base.calls)
	}
}

func TestCachingProviderNilBase(t *testing.T) {
	cache := NewCachingProvider(nil, time.Minute)
	if _, err := cache.Lookup(context.Background(), "https://youtu.be/abc123XYZ"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
