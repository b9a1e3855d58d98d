package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Claims - поля токена, выданного внешним провайдером авторизации.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole проверяет, есть ли у пользователя указанная роль.
func HasRole(userRoles []string, targetRole string) bool {
	for _, role := range userRoles {
		if role == targetRole {
			return true
		}
	}
	return false
}

type contextKey string

const (
	UserContextKey  contextKey = "userID"
	RolesContextKey contextKey = "userRoles"
)

// GetUserIDFromContext достает UserID, положенный auth middleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserContextKey).(string)
	return userID, ok && userID != ""
}

func GetRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(RolesContextKey).([]string)
	return roles, ok
}
