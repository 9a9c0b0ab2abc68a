package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionIdlePrefix = "session:idle:"
	lastSeenPrefix    = "user:lastseen:"
)

// SessionActivityStore tracks session idleness in Redis. A session is alive while its
// idle key exists; every authenticated request pushes the key's expiry forward.
type SessionActivityStore struct {
	client *redis.Client
}

// NewSessionActivityStore constructs the store.
func NewSessionActivityStore(client *redis.Client) *SessionActivityStore {
	return &SessionActivityStore{client: client}
}

// StartIdle registers a new session with the idle timeout.
func (s *SessionActivityStore) StartIdle(ctx context.Context, sessionID, userID string, idle time.Duration) error {
	if err := s.client.Set(ctx, sessionIdlePrefix+sessionID, userID, idle).Err(); err != nil {
		return fmt.Errorf("redis start session %s: %w", sessionID, err)
	}
	return nil
}

// Refresh extends the idle window. It reports false when the session already idled out.
func (s *SessionActivityStore) Refresh(ctx context.Context, sessionID string, idle time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, sessionIdlePrefix+sessionID, idle).Result()
	if err != nil {
		return false, fmt.Errorf("redis refresh session %s: %w", sessionID, err)
	}
	return ok, nil
}

// Remaining returns the time left before the session idles out, zero when gone.
func (s *SessionActivityStore) Remaining(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, sessionIdlePrefix+sessionID).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl session %s: %w", sessionID, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Revoke drops the idle keys of the given sessions.
func (s *SessionActivityStore) Revoke(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = sessionIdlePrefix + id
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis revoke sessions: %w", err)
	}
	return nil
}

// ShouldRecordActivity reports true at most once per window for a user.
func (s *SessionActivityStore) ShouldRecordActivity(ctx context.Context, userID string, window time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lastSeenPrefix+userID, time.Now().UTC().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("redis throttle activity %s: %w", userID, err)
	}
	return ok, nil
}

// ForgetActivity clears the throttle so the next request records activity.
func (s *SessionActivityStore) ForgetActivity(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, lastSeenPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis forget activity %s: %w", userID, err)
	}
	return nil
}
