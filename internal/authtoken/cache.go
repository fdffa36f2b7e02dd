// Package authtoken holds a single shared cache: a process-wide
// (token, expiry_deadline) pair, exposed as one atomic "get valid token"
// capability rather than raw mutable cells.
package authtoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/naividh/member-profile-processor/internal/metrics"
)

// Fetcher mints a fresh bearer token and its time-to-live. It is the one
// authentication operation the core performs itself — there is no refresh
// flow beyond caching this opaque value.
type Fetcher interface {
	FetchToken(ctx context.Context) (token string, ttl time.Duration, err error)
}

// Cache caches an opaque bearer token until it expires. Concurrent misses
// collapse into a single Fetcher call via singleflight: concurrent fetches
// would be harmless (the endpoint is idempotent), but deduplicating them
// avoids hammering it under a thundering herd of expirations.
type Cache struct {
	fetcher     Fetcher
	fallbackTTL time.Duration
	group       singleflight.Group

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// NewCache creates a token cache backed by fetcher. fallbackTTL (the
// TOKEN_CACHE_TIME setting) is used when fetcher reports a non-positive
// TTL, so a token endpoint that omits expires_in still gets cached rather
// than re-fetched on every call.
func NewCache(fetcher Fetcher, fallbackTTL time.Duration) *Cache {
	return &Cache{fetcher: fetcher, fallbackTTL: fallbackTTL}
}

// Get returns a valid bearer token, fetching a new one if the cached token
// is absent or expired. A small safety margin (10s) is subtracted from the
// reported TTL so a token is never handed out right at its expiry boundary.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiry := c.token, c.expiry
	c.mu.RUnlock()

	if token != "" && time.Now().Before(expiry) {
		metrics.TokenFetchesTotal.WithLabelValues("hit").Inc()
		return token, nil
	}

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		// Re-check under the singleflight key: another caller may have
		// refreshed the token while this one waited to acquire it.
		c.mu.RLock()
		token, expiry := c.token, c.expiry
		c.mu.RUnlock()
		if token != "" && time.Now().Before(expiry) {
			return token, nil
		}

		newToken, ttl, err := c.fetcher.FetchToken(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch M2M token: %w", err)
		}
		if ttl <= 0 {
			ttl = c.fallbackTTL
		}

		c.mu.Lock()
		c.token = newToken
		c.expiry = time.Now().Add(ttl - 10*time.Second)
		c.mu.Unlock()

		return newToken, nil
	})
	if err != nil {
		metrics.TokenFetchesTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.TokenFetchesTotal.WithLabelValues("miss").Inc()
	return v.(string), nil
}
