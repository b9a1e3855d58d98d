package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Document хранит одно JSON-значение типа T под фиксированным ключом.
type Document[T any] struct {
	kv  KV
	key string
	ttl time.Duration
}

func NewDocument[T any](kv KV, key string, ttl time.Duration) *Document[T] {
	return &Document[T]{kv: kv, key: key, ttl: ttl}
}

func (d *Document[T]) Key() string { return d.key }

// Load читает значение. Отсутствие ключа не ошибка: found=false.
// Неразбираемое значение возвращается как ErrCorrupt.
func (d *Document[T]) Load(ctx context.Context) (value T, found bool, err error) {
	raw, err := d.kv.Get(ctx, d.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return value, false, nil
		}
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, d.key, err)
	}
	return value, true, nil
}

func (d *Document[T]) Save(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.key, err)
	}
	return d.kv.Set(ctx, d.key, raw, d.ttl)
}

func (d *Document[T]) Delete(ctx context.Context) error {
	return d.kv.Delete(ctx, d.key)
}
