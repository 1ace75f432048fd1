package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/classroom-backend/internal/config"
)

// ErrNoSession is returned when a user has no active session.
var ErrNoSession = errors.New("no active session")

// SessionStore remembers the token id of each user's latest login.
type SessionStore interface {
	Set(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Get(ctx context.Context, userID int) (string, error)
	Delete(ctx context.Context, userID int) error
}

// RedisSessionStore keeps sessions under config.CacheKey.UserSessionKey.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Set(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID), jti, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int) (string, error) {
	jti, err := s.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("check session: %w", err)
	}
	return jti, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID int) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}

// MemorySessionStore keeps sessions in process memory. It serves the
// in-memory store driver and tests; expiry is not enforced.
type MemorySessionStore struct {
	mu   sync.Mutex
	jtis map[int]string
}

// NewMemorySessionStore creates a new MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{jtis: make(map[int]string)}
}

func (s *MemorySessionStore) Set(_ context.Context, userID int, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jtis[userID] = jti
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, userID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jti, ok := s.jtis[userID]
	if !ok {
		return "", ErrNoSession
	}
	return jti, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jtis, userID)
	return nil
}
