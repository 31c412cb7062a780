package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-provision/core"
)

const sessionCacheKeyPrefix = "go-provision::session::v1"

type cachedSessionValue struct {
	Value string
	Found bool
}

// CachedSessionStore fronts a session store with a read-through cache.
// Writes go to the base store first and then invalidate the cached entry so
// reads never observe a value the base store has not accepted.
type CachedSessionStore struct {
	base  core.SessionStore
	cache repositorycache.CacheService
}

func NewCachedSessionStore(base core.SessionStore, cacheService repositorycache.CacheService) (*CachedSessionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base session store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: session cache service is required")
	}
	return &CachedSessionStore{base: base, cache: cacheService}, nil
}

// SessionCacheKey returns the deterministic cache key for a session entry:
// go-provision::session::v1::<key> with the key URL-path escaped.
func SessionCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: session key is required")
	}
	return sessionCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return "", false, fmt.Errorf("sqlstore: cached session store is not configured")
	}
	cacheKey, err := SessionCacheKey(key)
	if err != nil {
		return "", false, err
	}

	cached, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedSessionValue, error) {
		value, found, fetchErr := s.base.Get(ctx, key)
		if fetchErr != nil {
			return cachedSessionValue{}, fetchErr
		}
		return cachedSessionValue{Value: value, Found: found}, nil
	})
	if err != nil {
		return "", false, err
	}
	return cached.Value, cached.Found, nil
}

func (s *CachedSessionStore) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached session store is not configured")
	}
	cacheKey, err := SessionCacheKey(key)
	if err != nil {
		return err
	}
	if err := s.base.Set(ctx, key, value); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func (s *CachedSessionStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached session store is not configured")
	}
	cacheKey, err := SessionCacheKey(key)
	if err != nil {
		return err
	}
	if err := s.base.Delete(ctx, key); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
