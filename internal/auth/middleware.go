package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ezcode-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier - сигнатура JWTVerifier.VerifyToken.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// Ключи gin.Context.
const (
	ginUserIDKey = "user_id"
	ginRolesKey  = "user_roles"
)

var errMissingToken = errors.New("authorization header missing")

// Middleware проверяет Bearer-токен.
type Middleware struct {
	verify TokenVerifier
	logger *zap.Logger
}

func NewMiddleware(verify TokenVerifier, logger *zap.Logger) *Middleware {
	return &Middleware{verify: verify, logger: logger.Named("AuthMiddleware")}
}

// Optional кладет пользователя в контекст, если передан валидный токен.
// Без заголовка запрос проходит анонимно, с невалидным токеном - 401.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.authenticate(c)
		switch {
		case errors.Is(err, errMissingToken):
			c.Next()
			return
		case err != nil:
			m.abort(c, err)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// Require требует валидный токен и хотя бы одну из ролей (если заданы).
func (m *Middleware) Require(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.authenticate(c)
		if err != nil {
			m.abort(c, err)
			return
		}
		if len(roles) > 0 && !hasAnyRole(claims.Roles, roles) {
			authAttemptsTotal.WithLabelValues("forbidden").Inc()
			m.logger.Warn("User does not have required role",
				zap.String("userID", claims.UserID),
				zap.Strings("userRoles", claims.Roles),
				zap.Strings("requiredRoles", roles))
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Code:    models.ErrCodeForbidden,
				Message: "Insufficient permissions",
			})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context) (*models.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, models.ErrTokenMalformed
	}
	claims, err := m.verify(c.Request.Context(), parts[1])
	if err != nil {
		return nil, err
	}
	authAttemptsTotal.WithLabelValues("success").Inc()
	return claims, nil
}

func (m *Middleware) abort(c *gin.Context, err error) {
	authAttemptsTotal.WithLabelValues("failure").Inc()
	resp := models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Token is invalid or malformed"}
	switch {
	case errors.Is(err, errMissingToken):
		resp.Message = "Authorization header missing"
	case errors.Is(err, models.ErrTokenExpired):
		resp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
	default:
		m.logger.Error("Unexpected token verification error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    models.ErrCodeInternal,
			Message: "Internal server error during token verification",
		})
		return
	}
	m.logger.Debug("Authentication failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// setClaims дублирует пользователя в gin.Context и context.Context запроса,
// чтобы сервисы читали его через models.GetUserIDFromContext.
func setClaims(c *gin.Context, claims *models.Claims) {
	c.Set(ginUserIDKey, claims.UserID)
	c.Set(ginRolesKey, claims.Roles)
	ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
	ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
	c.Request = c.Request.WithContext(ctx)
}

// UserID возвращает пользователя, положенный middleware.
func UserID(c *gin.Context) (string, bool) {
	return models.GetUserIDFromContext(c.Request.Context())
}

func hasAnyRole(userRoles, required []string) bool {
	for _, r := range required {
		if models.HasRole(userRoles, r) {
			return true
		}
	}
	return false
}
