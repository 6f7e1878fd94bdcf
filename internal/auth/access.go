// Package auth guards mutating endpoints with an optional shared access key,
// for vaults exposed beyond localhost.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AccessGuard validates the bearer key on mutating requests. A nil guard, or
// one built from an empty key, allows everything.
type AccessGuard struct {
	hash []byte
}

// NewAccessGuard hashes the configured key once at boot. An empty key yields
// an open guard.
func NewAccessGuard(key string) (*AccessGuard, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return &AccessGuard{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash access key: %w", err)
	}
	return &AccessGuard{hash: hash}, nil
}

// Allow reports whether the request carries the configured key.
func (g *AccessGuard) Allow(r *http.Request) bool {
	if g == nil || len(g.hash) == 0 {
		return true
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(strings.TrimSpace(token))) == nil
}
