// Package auth verifies bearer tokens against an identity provider's
// rotating public key set.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lestrrat-go/jwx/jwk"
)

// Error types
var (
	// ErrKeyNotFound indicates the key id is absent even after a refresh
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrDiscoveryUnavailable indicates the key set could not be fetched
	ErrDiscoveryUnavailable = errors.New("key discovery unavailable")
)

// KeyResolver lazily fetches and caches the identity provider's JWKS. There
// is no background refresh and no explicit invalidation: a lookup miss
// triggers one re-fetch of the whole set, then one retry. Concurrent
// refreshes race harmlessly (idempotent overwrite of the cached set).
type KeyResolver struct {
	jwksURL string

	mu  sync.RWMutex
	set jwk.Set
}

// NewKeyResolver creates a resolver for the provider at baseURL. The key
// set is served from the standard discovery path under that base.
func NewKeyResolver(baseURL string) *KeyResolver {
	return &KeyResolver{
		jwksURL: strings.TrimSuffix(baseURL, "/") + "/.well-known/jwks.json",
	}
}

// Resolve returns the public key for the given key id, refreshing the
// cached set on a miss.
func (r *KeyResolver) Resolve(ctx context.Context, kid string) (jwk.Key, error) {
	if key, ok := r.lookup(kid); ok {
		return key, nil
	}

	if err := r.refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok := r.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (r *KeyResolver) lookup(kid string) (jwk.Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.set == nil {
		return nil, false
	}
	return r.set.LookupKeyID(kid)
}

func (r *KeyResolver) refresh(ctx context.Context) error {
	set, err := jwk.Fetch(ctx, r.jwksURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, err)
	}

	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	return nil
}
