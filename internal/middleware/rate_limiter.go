package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/config"
)

var errRateLimited = errors.New("rate limit exceeded")

type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	GetCount(ctx context.Context, key string) (int, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := s.client.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incr.Val()), nil
}

func (s *RedisStore) GetCount(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*RateLimitEntry
}

type RateLimitEntry struct {
	Count     int
	ExpiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*RateLimitEntry),
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, entry := range s.store {
		if now.After(entry.ExpiresAt) {
			delete(s.store, k)
		}
	}

	entry, exists := s.store[key]
	if !exists {
		entry = &RateLimitEntry{
			Count:     0,
			ExpiresAt: now.Add(window),
		}
		s.store[key] = entry
	}

	entry.Count++
	return entry.Count, nil
}

func (s *MemoryStore) GetCount(ctx context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.store[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		return 0, nil
	}

	return entry.Count, nil
}

type RateLimiter struct {
	store RateLimitStore
	log   zerolog.Logger
}

func NewRateLimiter(store RateLimitStore, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		store: store,
		log:   log,
	}
}

// RateLimit counts requests per client IP and route. It guards the public
// credential endpoints only.
func (r *RateLimiter) RateLimit(cfg config.RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled {
			return c.Next()
		}

		ip := c.IP()
		if ip == "" {
			ip = c.Context().RemoteIP().String()
		}

		ipKey := fmt.Sprintf("rate_limit:ip:%s:%s", ip, c.Path())
		if err := r.checkRateLimit(c.Context(), ipKey, cfg); err != nil {
			return r.reject(c, ipKey, err, "Too many requests from this IP")
		}

		return c.Next()
	}
}

func (r *RateLimiter) reject(c *fiber.Ctx, key string, err error, message string) error {
	if !errors.Is(err, errRateLimited) {
		r.log.Error().Err(err).Str("key", key).Msg("rate limit store failed")
	}
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"message": message,
	})
}

func (r *RateLimiter) checkRateLimit(ctx context.Context, key string, cfg config.RateLimitConfig) error {
	count, err := r.store.GetCount(ctx, key)
	if err != nil {
		return err
	}

	if count >= cfg.Limit {
		return errRateLimited
	}

	_, err = r.store.Increment(ctx, key, cfg.Window)
	return err
}
