// Package chat provisions the direct chat between a client and the
// provider they hired. A pair of users always maps to the same chat.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"kazi_backend/platform/logger"
)

const defaultCacheTTL = 24 * time.Hour

// Store is the durable chat storage.
type Store interface {
	GetOrCreate(ctx context.Context, low, high uuid.UUID) (uuid.UUID, error)
}

// Service resolves chats through a Redis read-through cache.
type Service struct {
	store Store
	cache *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, ttl: defaultCacheTTL, log: log}
}

// SetCache enables the Redis cache. A nil client disables it.
func (s *Service) SetCache(client *redis.Client, ttl time.Duration) {
	s.cache = client
	if ttl > 0 {
		s.ttl = ttl
	}
}

// GetOrCreateChat returns the chat id shared by userA and userB regardless
// of argument order.
func (s *Service) GetOrCreateChat(ctx context.Context, userA, userB uuid.UUID) (string, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return "", errors.New("chat participants are required")
	}
	if userA == userB {
		return "", errors.New("chat participants must differ")
	}
	low, high := orderPair(userA, userB)
	key := cacheKey(low, high)

	if id, ok := s.cached(ctx, key); ok {
		return id, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		id, err := s.store.GetOrCreate(ctx, low, high)
		if err != nil {
			return "", err
		}
		s.remember(ctx, key, id.String())
		return id.String(), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	id, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		s.log.Warn("chat cache read failed", "key", key, "error", err)
		return "", false
	}
	return id, true
}

func (s *Service) remember(ctx context.Context, key, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, id, s.ttl).Err(); err != nil {
		s.log.Warn("chat cache write failed", "key", key, "error", err)
	}
}

func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

func cacheKey(low, high uuid.UUID) string {
	return fmt.Sprintf("chat:pair:%s:%s", low, high)
}
