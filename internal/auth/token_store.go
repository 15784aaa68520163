package auth

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/cache"
)

const refreshTokenKeyPrefix = "refresh_token:"

// RefreshSession is what the store remembers about an issued refresh token.
type RefreshSession struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, session RefreshSession, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (*RefreshSession, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

// TokenStore keeps refresh tokens in Redis, or in memory when Redis is off.
type TokenStore struct {
	store cache.Store
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(store cache.Store) *TokenStore {
	return &TokenStore{store: store}
}

// StoreRefreshToken stores a refresh token with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, session RefreshSession, ttl time.Duration) error {
	if err := cache.SetJSON(ctx, s.store, refreshTokenKeyPrefix+tokenID, session, ttl); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token data.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (*RefreshSession, error) {
	var session RefreshSession
	if !cache.GetJSON(ctx, s.store, refreshTokenKeyPrefix+tokenID, &session) {
		return nil, fmt.Errorf("refresh token not found")
	}
	return &session, nil
}

// DeleteRefreshToken removes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.store.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}
