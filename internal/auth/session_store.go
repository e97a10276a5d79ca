package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rif/cache2go"

	"github.com/ticketbooth/eventpass/internal/domain"
)

// ErrSessionNotFound is returned for unknown, revoked or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the server-side half of logins.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

const memoryStoreCapacity = 10000

// MemorySessionStore holds sessions in process memory. Sessions do not
// survive a restart and are not shared between processes.
type MemorySessionStore struct {
	cache *cache2go.Cache
	now   func() time.Time
}

// NewMemorySessionStore evicts entries after ttl regardless of their own expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		cache: cache2go.New(memoryStoreCapacity, ttl),
		now:   time.Now,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session *domain.Session) error {
	stored := *session
	s.cache.Set(session.ID, &stored)
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	val, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, ok := val.(*domain.Session)
	if !ok || session.Expired(s.now()) {
		s.cache.Delete(id)
		return nil, ErrSessionNotFound
	}
	found := *session
	return &found, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

const redisSessionPrefix = "session:"

// RedisSessionStore keeps sessions in Redis with a TTL matching their expiry.
type RedisSessionStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisSessionStore wraps client.
func NewRedisSessionStore(client redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return redisSessionPrefix + id
}

func (s *RedisSessionStore) Create(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), string(payload), ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
