package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterExhaustsBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 2, time.Minute)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first request to pass")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected burst capacity to pass")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected the third request to be limited")
	}
}

func TestIPRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first key to pass")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected first key to be limited")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected a different key to pass")
	}
}

func TestIPRateLimiterEmptyKey(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute)

	if !limiter.Allow("") {
		t.Fatal("expected the first anonymous request to pass")
	}
	if limiter.Allow("") {
		t.Fatal("expected anonymous requests to share one bucket")
	}
}
