package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/cache"
	"stockroom/internal/model"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.False(t, IsLegacyHash(hash))
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestLegacyDigest(t *testing.T) {
	// sha256("123")
	const want = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

	assert.Equal(t, want, LegacyDigest("123"))
	assert.True(t, IsLegacyHash(want))
	assert.True(t, VerifyPassword(want, "123"))
	assert.False(t, VerifyPassword(want, "1234"))
}

func TestIsLegacyHash(t *testing.T) {
	assert.False(t, IsLegacyHash(""))
	assert.False(t, IsLegacyHash("zz"+LegacyDigest("x")[2:]))
	assert.False(t, IsLegacyHash("$2a$10$abcdefghijklmnopqrstuv"))
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := &model.User{ID: 7, Username: "ana", Role: model.RoleStaff}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, model.RoleStaff, claims.Role)
}

func TestJWTService_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := &model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}

	id, token, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	extracted, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, id, extracted)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService("test-secret")
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	user := &model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}

	expired, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	other := NewJWTService("another-secret")
	foreign, err := other.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore(cache.NewMemory())

	require.NoError(t, store.StoreRefreshToken(ctx, "jti-1", RefreshSession{UserID: 3, Username: "bia"}, time.Hour))

	session, err := store.GetRefreshToken(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, uint(3), session.UserID)
	assert.Equal(t, "bia", session.Username)

	require.NoError(t, store.DeleteRefreshToken(ctx, "jti-1"))
	_, err = store.GetRefreshToken(ctx, "jti-1")
	assert.Error(t, err)
}

func TestMiddlewareAndRequireRole(t *testing.T) {
	svc := NewJWTService("test-secret")
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, ClaimsFrom(c).Username)
	}, Middleware(svc), RequireRole(model.RoleAdmin))

	tokenFor := func(role model.Role) string {
		token, err := svc.GenerateAccessToken(&model.User{ID: 1, Username: "u-" + string(role), Role: role})
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + tokenFor(model.RoleStaff), http.StatusForbidden},
		{"admin", "Bearer " + tokenFor(model.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
