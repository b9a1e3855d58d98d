package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ezcode-server/internal/auth"
	"ezcode-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTVerifier(t *testing.T) {
	v, err := auth.NewJWTVerifier(secret, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		token, err := auth.IssueToken(secret, "user-1", []string{models.RoleAdmin}, time.Hour)
		require.NoError(t, err)
		claims, err := v.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.True(t, models.HasRole(claims.Roles, models.RoleAdmin))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.IssueToken(secret, "user-1", nil, -time.Minute)
		require.NoError(t, err)
		_, err = v.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.IssueToken("other", "user-1", nil, time.Hour)
		require.NoError(t, err)
		_, err = v.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.VerifyToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = v.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	_, err = auth.NewJWTVerifier("", nil)
	assert.Error(t, err)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	v, err := auth.NewJWTVerifier(secret, zap.NewNop())
	require.NoError(t, err)
	m := auth.NewMiddleware(v.VerifyToken, zap.NewNop())

	whoami := func(c *gin.Context) {
		userID, _ := auth.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	}

	r := gin.New()
	r.GET("/optional", m.Optional(), whoami)
	r.GET("/admin", m.Require(models.RoleAdmin), whoami)
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	r := newRouter(t)
	adminToken, err := auth.IssueToken(secret, "admin-1", []string{models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	userToken, err := auth.IssueToken(secret, "user-1", []string{models.RoleUser}, time.Hour)
	require.NoError(t, err)

	t.Run("optional without token", func(t *testing.T) {
		w := do(r, "/optional", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":""}`, w.Body.String())
	})

	t.Run("optional with token", func(t *testing.T) {
		w := do(r, "/optional", userToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-1"}`, w.Body.String())
	})

	t.Run("optional with bad token", func(t *testing.T) {
		w := do(r, "/optional", "garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin without token", func(t *testing.T) {
		w := do(r, "/admin", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin with user role", func(t *testing.T) {
		w := do(r, "/admin", userToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrCodeForbidden, resp.Code)
	})

	t.Run("admin with admin role", func(t *testing.T) {
		w := do(r, "/admin", adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := auth.IssueToken(secret, "admin-1", []string{models.RoleAdmin}, -time.Minute)
		require.NoError(t, err)
		w := do(r, "/admin", expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrCodeTokenExpired, resp.Code)
	})
}
