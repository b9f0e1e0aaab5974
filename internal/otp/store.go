package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the outstanding code per mobile and a short-lived marker that
// the mobile passed verification.
type Store interface {
	SaveCode(ctx context.Context, mobile, code string, ttl time.Duration) error
	Code(ctx context.Context, mobile string) (string, bool, error)
	DeleteCode(ctx context.Context, mobile string) error
	MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error
	// TakeVerified reports whether the marker existed and removes it.
	TakeVerified(ctx context.Context, mobile string) (bool, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func codeKey(mobile string) string     { return fmt.Sprintf("otp:%s", mobile) }
func verifiedKey(mobile string) string { return fmt.Sprintf("otp:verified:%s", mobile) }

func (s *RedisStore) SaveCode(ctx context.Context, mobile, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKey(mobile), code, ttl).Err()
}

func (s *RedisStore) Code(ctx context.Context, mobile string) (string, bool, error) {
	code, err := s.client.Get(ctx, codeKey(mobile)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (s *RedisStore) DeleteCode(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, codeKey(mobile)).Err()
}

func (s *RedisStore) MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error {
	return s.client.Set(ctx, verifiedKey(mobile), 1, ttl).Err()
}

func (s *RedisStore) TakeVerified(ctx context.Context, mobile string) (bool, error) {
	n, err := s.client.Del(ctx, verifiedKey(mobile)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type entry struct {
	value     string
	expiresAt time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	store map[string]entry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]entry),
		now:   time.Now,
	}
}

func (s *MemoryStore) SaveCode(ctx context.Context, mobile, code string, ttl time.Duration) error {
	s.set(codeKey(mobile), code, ttl)
	return nil
}

func (s *MemoryStore) Code(ctx context.Context, mobile string) (string, bool, error) {
	v, ok := s.get(codeKey(mobile))
	return v, ok, nil
}

func (s *MemoryStore) DeleteCode(ctx context.Context, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, codeKey(mobile))
	return nil
}

func (s *MemoryStore) MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error {
	s.set(verifiedKey(mobile), "1", ttl)
	return nil
}

func (s *MemoryStore) TakeVerified(ctx context.Context, mobile string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := verifiedKey(mobile)
	e, ok := s.store[key]
	delete(s.store, key)
	return ok && s.now().Before(e.expiresAt), nil
}

func (s *MemoryStore) set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.store {
		if !now.Before(e.expiresAt) {
			delete(s.store, k)
		}
	}
	s.store[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

func (s *MemoryStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.store[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", false
	}
	return e.value, true
}
