package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/incuhub/incuhub/internal/shared"
)

// CachedResolver wraps a Source with a short-lived Redis cache keyed by
// session ID, so repeated navigations do not hit the account and profile
// stores on every request. Entries are dropped on logout and whenever the
// user's role changes; a cached identity is never served to a different
// session than the one that produced it.
type CachedResolver struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedResolver constructs a CachedResolver.
func NewCachedResolver(inner Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedResolver{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Resolve returns the cached identity for the ambient session, resolving and
// caching it on a miss. Concurrent misses for the same session are collapsed
// into a single upstream resolution.
func (c *CachedResolver) Resolve(ctx context.Context) (Identity, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return Identity{}, nil
	}
	key := sessionKey(sess.ID)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var ident Identity
		if err := json.Unmarshal(data, &ident); err == nil && ident.ID == sess.User() {
			return ident, nil
		}
	} else if !errors.Is(err, redis.Nil) && c.logger != nil {
		c.logger.Warn("identity cache get", slog.Any("error", err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		ident, err := c.inner.Resolve(ctx)
		if err != nil {
			return Identity{}, err
		}
		c.store(ctx, sess.ID, ident)
		return ident, nil
	})
	if err != nil {
		return Identity{}, err
	}
	return v.(Identity), nil
}

// Invalidate drops the cached identity for one session. Called on logout.
func (c *CachedResolver) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

// InvalidateUser drops every cached identity belonging to the user. Called
// when the user's role assignment changes.
func (c *CachedResolver) InvalidateUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	indexKey := userIndexKey(userID)
	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys = append(keys, indexKey)
	return c.client.Del(ctx, keys...).Err()
}

func (c *CachedResolver) store(ctx context.Context, sessionID string, ident Identity) {
	// Degraded identities are not cached: a profile store outage should not
	// pin the role-less state for a full TTL.
	if !ident.Resolved() || !ident.HasRole() {
		return
	}
	data, err := json.Marshal(ident)
	if err != nil {
		return
	}
	key := sessionKey(sessionID)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, userIndexKey(ident.ID), key)
	pipe.Expire(ctx, userIndexKey(ident.ID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
		c.logger.Warn("identity cache store", slog.Any("error", err))
	}
}

func sessionKey(sessionID string) string {
	return "identity:sess:" + sessionID
}

func userIndexKey(userID string) string {
	return "identity:user:" + userID
}
