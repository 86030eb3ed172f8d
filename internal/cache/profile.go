// internal/cache/profile.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "recommend:profile:"

// ProfileStore is a read-through Redis cache in front of a UserStore. Cache
// failures are logged and fall through to the wrapped store.
type ProfileStore struct {
	next   recommendation.UserStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewProfileStore(next recommendation.UserStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func Key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

func (s *ProfileStore) FindUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	key := Key(userID)

	cached, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var p models.UserProfile
		if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil {
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
		s.logger.Warn("discarding corrupt cached profile", map[string]interface{}{"userId": userID})
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
	default:
		s.logger.Warn("profile cache read failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
	}

	p, err := s.next.FindUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return p, nil
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	return p, nil
}

// Invalidate drops a cached profile, e.g. after the user edits preferences.
func (s *ProfileStore) Invalidate(ctx context.Context, userID int64) error {
	return s.redis.Del(ctx, Key(userID)).Err()
}
