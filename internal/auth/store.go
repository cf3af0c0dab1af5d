package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// LegacyAdminKey names the per-device flag; its only stored value is "true".
const LegacyAdminKey = "isAdmin"

var ErrStoreClosed = errors.New("session store closed")

// SessionStore holds the legacy admin flag per device. The flag is a
// convenience gate tied to a browser, not to any identity, and must not be
// treated as a security boundary.
type SessionStore interface {
	Init(ctx context.Context) error
	Teardown() error
	LegacyAdmin(ctx context.Context, deviceID string) (bool, error)
	SetLegacyAdmin(ctx context.Context, deviceID string) error
	ClearLegacyAdmin(ctx context.Context, deviceID string) error
}

type RedisSessionStore struct {
	Redis  redis.Cmdable
	closed atomic.Bool
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{Redis: rdb}
}

func (s *RedisSessionStore) Init(ctx context.Context) error {
	s.closed.Store(false)
	return s.Redis.Ping(ctx).Err()
}

func (s *RedisSessionStore) Teardown() error {
	s.closed.Store(true)
	return nil
}

func key(deviceID string) string { return fmt.Sprintf(redisx.KeyLegacyAdmin, deviceID) }

func (s *RedisSessionStore) LegacyAdmin(ctx context.Context, deviceID string) (bool, error) {
	if s.closed.Load() {
		return false, ErrStoreClosed
	}
	v, err := s.Redis.Get(ctx, key(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *RedisSessionStore) SetLegacyAdmin(ctx context.Context, deviceID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.Redis.Set(ctx, key(deviceID), "true", redisx.TTLLegacyAdmin).Err()
}

func (s *RedisSessionStore) ClearLegacyAdmin(ctx context.Context, deviceID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.Redis.Del(ctx, key(deviceID)).Err()
}

// MemorySessionStore keeps flags in process; used for single-node dev runs and tests.
type MemorySessionStore struct {
	mu     sync.Mutex
	flags  map[string]string
	closed bool
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (s *MemorySessionStore) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags == nil {
		s.flags = map[string]string{}
	}
	s.closed = false
	return nil
}

func (s *MemorySessionStore) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = nil
	s.closed = true
	return nil
}

func (s *MemorySessionStore) LegacyAdmin(_ context.Context, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags == nil {
		return false, ErrStoreClosed
	}
	return s.flags[key(deviceID)] == "true", nil
}

func (s *MemorySessionStore) SetLegacyAdmin(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags == nil {
		return ErrStoreClosed
	}
	s.flags[key(deviceID)] = "true"
	return nil
}

func (s *MemorySessionStore) ClearLegacyAdmin(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags == nil {
		return ErrStoreClosed
	}
	delete(s.flags, key(deviceID))
	return nil
}
