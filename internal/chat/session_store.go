package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/cache"
)

const (
	sessionKeyPrefix = "chat_session:"
	// SessionTTL bounds how long an idle conversation is remembered.
	SessionTTL = 30 * time.Minute
)

// SessionStore keeps sessions between requests.
type SessionStore struct {
	store cache.Store
	ttl   time.Duration
}

// NewSessionStore wraps a cache store.
func NewSessionStore(store cache.Store) *SessionStore {
	if store == nil {
		store = cache.NewMemory()
	}
	return &SessionStore{store: store, ttl: SessionTTL}
}

// NewSessionID returns a fresh identifier for a conversation.
func NewSessionID() string {
	return uuid.New().String()
}

func sessionKey(owner uint, id string) string {
	return fmt.Sprintf("%s%d:%s", sessionKeyPrefix, owner, id)
}

// Load returns the session owner stored under id, or a new idle one when id
// is unknown, expired or belongs to someone else.
func (s *SessionStore) Load(ctx context.Context, owner uint, id string) Session {
	var sess Session
	if id == "" || !cache.GetJSON(ctx, s.store, sessionKey(owner, id), &sess) {
		return NewSession()
	}
	return sess
}

// Save stores sess for owner under id and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, owner uint, id string, sess Session) error {
	return cache.SetJSON(ctx, s.store, sessionKey(owner, id), sess, s.ttl)
}

// Delete forgets a session.
func (s *SessionStore) Delete(ctx context.Context, owner uint, id string) error {
	return s.store.Delete(ctx, sessionKey(owner, id))
}
