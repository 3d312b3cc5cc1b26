package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-feed-relay/core"
)

const sessionCacheKeyPrefix = "go-feed-relay::session::v1"

// CachedSessionStore fronts a SessionStore with a read-through cache so the
// scheduler's per-run session lookup skips the database on the hot path.
// Writes invalidate rather than populate.
type CachedSessionStore struct {
	base  core.SessionStore
	cache repositorycache.CacheService
}

func NewCachedSessionStore(
	base core.SessionStore,
	cacheService repositorycache.CacheService,
) (*CachedSessionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base session store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: session cache service is required")
	}
	return &CachedSessionStore{base: base, cache: cacheService}, nil
}

// SessionCacheKey returns the deterministic cache key for session reads:
// go-feed-relay::session::v1::<account_id> with the account segment
// URL-path escaped.
func SessionCacheKey(accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", fmt.Errorf("sqlstore: account id is required")
	}
	return sessionCacheKeyPrefix + "::" + url.PathEscape(accountID), nil
}

type cachedSessionEntry struct {
	Session core.Session
	Found   bool
}

func (s *CachedSessionStore) Get(ctx context.Context, accountID string) (core.Session, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Session{}, false, fmt.Errorf("sqlstore: cached session store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	cacheKey, err := SessionCacheKey(accountID)
	if err != nil {
		return core.Session{}, false, err
	}

	entry, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedSessionEntry, error) {
		session, found, fetchErr := s.base.Get(ctx, accountID)
		if fetchErr != nil {
			return cachedSessionEntry{}, fetchErr
		}
		return cachedSessionEntry{Session: cloneSession(session), Found: found}, nil
	})
	if err != nil {
		return core.Session{}, false, err
	}
	return cloneSession(entry.Session), entry.Found, nil
}

func (s *CachedSessionStore) Put(ctx context.Context, session core.Session) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached session store is not configured")
	}
	session.AccountID = strings.TrimSpace(session.AccountID)
	cacheKey, err := SessionCacheKey(session.AccountID)
	if err != nil {
		return err
	}

	if err := s.base.Put(ctx, session); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func (s *CachedSessionStore) Delete(ctx context.Context, accountID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached session store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	cacheKey, err := SessionCacheKey(accountID)
	if err != nil {
		return err
	}

	if err := s.base.Delete(ctx, accountID); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneSession(session core.Session) core.Session {
	cloned := session
	cloned.Payload = append([]byte(nil), session.Payload...)
	return cloned
}
