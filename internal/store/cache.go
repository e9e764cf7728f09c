// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-service/internal/common/database"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// CachedStore layers a Redis read-through cache over another Store.
// Only FindByID is cached; list queries always hit the inner store.
// Cache failures degrade to the inner store, never to the caller.
type CachedStore struct {
	inner Store
	redis *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewCachedStore(inner Store, rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		inner: inner,
		redis: rdb,
		ttl:   ttl,
		log:   log.WithFields(map[string]interface{}{"component": "store-cache"}),
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("notification:%s", id)
}

// Save writes through: the inner store first, then the cache, so a status
// transition is immediately visible to FindByID.
func (s *CachedStore) Save(ctx context.Context, n *models.Notification) error {
	if err := s.inner.Save(ctx, n); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err == nil {
		err = s.redis.Set(ctx, cacheKey(n.ID), payload, s.ttl)
	}
	if err != nil {
		s.log.Warn("cache write failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
	}
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	raw, err := s.redis.Get(ctx, cacheKey(id))
	if err == nil {
		var n models.Notification
		if jsonErr := json.Unmarshal([]byte(raw), &n); jsonErr == nil {
			return &n, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("cache read failed", map[string]interface{}{
			"notificationId": id,
			"error":          err.Error(),
		})
	}

	n, err := s.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(n); jsonErr == nil {
		if setErr := s.redis.Set(ctx, cacheKey(id), payload, s.ttl); setErr != nil {
			s.log.Warn("cache backfill failed", map[string]interface{}{
				"notificationId": id,
				"error":          setErr.Error(),
			})
		}
	}
	return n, nil
}

func (s *CachedStore) FindByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Notification, error) {
	return s.inner.FindByStatus(ctx, status, limit)
}

func (s *CachedStore) FindByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	return s.inner.FindByRecipient(ctx, recipient, limit)
}

func (s *CachedStore) FindAll(ctx context.Context, limit int) ([]*models.Notification, error) {
	return s.inner.FindAll(ctx, limit)
}

func (s *CachedStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	return s.inner.CountByStatus(ctx)
}
