// File: studybuddy/utils/auth_session.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// AuthSession is the server-held record behind a login. It lives from login until
// logout or TTL expiry.
type AuthSession struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore persists auth sessions.
type SessionStore interface {
	Save(ctx context.Context, session AuthSession, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*AuthSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps auth sessions in Redis.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Save stores the session under its id with a TTL.
func (s *RedisSessionStore) Save(ctx context.Context, session AuthSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	if err := s.client.Set(ctx, AuthSessionPrefix+session.SessionID, data, ttl).Err(); err != nil {
		return Unavailable(err, "session store unavailable")
	}
	return nil
}

// Get returns the session or an Unauthorized error when it does not exist.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*AuthSession, error) {
	data, err := s.client.Get(ctx, AuthSessionPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, Unauthorized("session expired")
	}
	if err != nil {
		return nil, Unavailable(err, "session store unavailable")
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, AuthSessionPrefix+sessionID).Err(); err != nil {
		return Unavailable(err, "session store unavailable")
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. TTLs are enforced on read.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	session   AuthSession
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]memorySession{}}
}

func (s *MemorySessionStore) Save(_ context.Context, session AuthSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = memorySession{session: session, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, Unauthorized("session expired")
	}
	session := entry.session
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
