package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/domain"
)

// RoleReader resolves the role names of a user.
type RoleReader interface {
	RolesOf(ctx context.Context, userID domain.UserID) (domain.RoleSet, error)
}

// RoleCacheClient is the part of *redis.Client the cache needs.
type RoleCacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedRoleStore is a read-through cache over a RoleReader. Entries expire after ttl
// and are dropped explicitly whenever a grant changes. Redis failures fall through to
// the inner store.
type CachedRoleStore struct {
	inner  RoleReader
	client RoleCacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRoleStore wraps inner. A non-positive ttl disables caching entirely.
func NewCachedRoleStore(inner RoleReader, client RoleCacheClient, ttl time.Duration, logger *zap.Logger) *CachedRoleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRoleStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func roleCacheKey(userID domain.UserID) string {
	return fmt.Sprintf("forum:roles:%d", userID)
}

func (s *CachedRoleStore) enabled() bool {
	return s.client != nil && s.ttl > 0
}

// RolesOf returns the cached role set when present, otherwise loads and caches it.
func (s *CachedRoleStore) RolesOf(ctx context.Context, userID domain.UserID) (domain.RoleSet, error) {
	if !s.enabled() {
		return s.inner.RolesOf(ctx, userID)
	}

	key := roleCacheKey(userID)
	raw, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var names []string
		if jsonErr := json.Unmarshal([]byte(raw), &names); jsonErr == nil {
			return domain.NewRoleSet(names...), nil
		}
		s.logger.Warn("discarding corrupt role cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("role cache read failed", zap.String("key", key), zap.Error(err))
	}

	set, err := s.inner.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(set.Names())
	if err != nil {
		return set, nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("role cache write failed", zap.String("key", key), zap.Error(err))
	}
	return set, nil
}

// Invalidate drops the cached role set for userID.
func (s *CachedRoleStore) Invalidate(ctx context.Context, userID domain.UserID) error {
	if !s.enabled() {
		return nil
	}
	return s.client.Del(ctx, roleCacheKey(userID)).Err()
}
