// Package storage предоставляет долговременное key-value хранилище состояния сессий
// (черновик мастера, наборы сравнения и избранного).
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound возвращается, когда ключ отсутствует или истек.
	ErrNotFound = errors.New("storage: key not found")
	// ErrCorrupt означает, что значение по ключу не удалось разобрать.
	ErrCorrupt = errors.New("storage: stored value is corrupt")
)

// KV - минимальный контракт хранилища. ttl <= 0 означает хранение без срока.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const keyPrefix = "ezcode:"

func SessionKey(sessionID string) string    { return keyPrefix + "session:" + sessionID }
func DraftKey(sessionID string) string      { return keyPrefix + "draft:" + sessionID }
func ComparisonKey(sessionID string) string { return keyPrefix + "comparison:" + sessionID }
func FavoritesKey(sessionID string) string  { return keyPrefix + "favorites:" + sessionID }
