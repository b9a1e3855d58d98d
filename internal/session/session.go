// Package session связывает мастер и наборы выбора одной сессии (аналог вкладки
// браузера) и управляет их жизненным циклом.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ezcode-server/internal/selection"
	"ezcode-server/internal/storage"
	"ezcode-server/internal/wizard"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

// Context - явно созданный контекст сессии. Все компоненты получают его
// через Manager, глобального состояния нет.
type Context struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	Wizard     *wizard.Wizard
	Comparison *selection.Store
	Favorites  *selection.Store

	lastSeen     time.Time
	unsubscribes []func()
}

// Set возвращает набор по имени.
func (c *Context) Set(name selection.Name) (*selection.Store, error) {
	switch name {
	case selection.Comparison:
		return c.Comparison, nil
	case selection.Favorites:
		return c.Favorites, nil
	}
	return nil, selection.ErrUnknownSet
}

// Summary - публичное описание сессии.
type Summary struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	CurrentStep     int       `json:"current_step"`
	ComparisonCount int       `json:"comparison_count"`
	FavoritesCount  int       `json:"favorites_count"`
}

func (c *Context) Summary() Summary {
	return Summary{
		ID:              c.ID,
		UserID:          c.UserID,
		CreatedAt:       c.CreatedAt,
		CurrentStep:     int(c.Wizard.CurrentStep()),
		ComparisonCount: c.Comparison.Size(),
		FavoritesCount:  c.Favorites.Size(),
	}
}

// EventSink получает события наборов всех сессий. Вызов не должен блокироваться.
type EventSink interface {
	PublishSelection(sessionID string, evt selection.Event)
}

// Toucher продлевает срок жизни ключей. Реализуется хранилищем опционально.
type Toucher interface {
	Touch(ctx context.Context, ttl time.Duration, keys ...string) error
}

type Config struct {
	TTL                time.Duration
	ComparisonCapacity int
}

type metadata struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager создает, восстанавливает и закрывает сессии.
type Manager struct {
	kv        storage.KV
	submitter wizard.Submitter
	sink      EventSink
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Context
}

func NewManager(kv storage.KV, submitter wizard.Submitter, sink EventSink, cfg Config, logger *zap.Logger) *Manager {
	if cfg.ComparisonCapacity <= 0 {
		cfg.ComparisonCapacity = selection.DefaultComparisonCapacity
	}
	return &Manager{
		kv:        kv,
		submitter: submitter,
		sink:      sink,
		cfg:       cfg,
		logger:    logger.Named("SessionManager"),
		now:       time.Now,
		sessions:  make(map[string]*Context),
	}
}

// Create начинает новую сессию с пустым состоянием.
func (m *Manager) Create(ctx context.Context, userID string) (*Context, error) {
	meta := metadata{ID: uuid.NewString(), UserID: userID, CreatedAt: m.now().UTC()}
	if err := m.markerDoc(meta.ID).Save(ctx, meta); err != nil {
		return nil, fmt.Errorf("save session marker: %w", err)
	}

	sc := m.build(ctx, meta)
	m.mu.Lock()
	m.sessions[meta.ID] = sc
	m.mu.Unlock()

	sessionsCreatedTotal.Inc()
	activeSessions.Inc()
	m.logger.Info("Session created", zap.String("sessionID", meta.ID), zap.String("userID", userID))
	return sc, nil
}

// Get возвращает сессию из памяти или восстанавливает ее из хранилища.
// Хранилище читается один раз при восстановлении.
func (m *Manager) Get(ctx context.Context, id string) (*Context, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	if sc, ok := m.sessions[id]; ok {
		sc.lastSeen = m.now()
		m.mu.Unlock()
		return sc, nil
	}
	m.mu.Unlock()

	meta, found, err := m.markerDoc(id).Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			m.logger.Warn("Corrupt session marker", zap.String("sessionID", id), zap.Error(err))
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session marker: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	sc := m.build(ctx, meta)

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		// Параллельное восстановление: остается первый экземпляр.
		m.mu.Unlock()
		m.teardown(sc, false)
		return existing, nil
	}
	m.sessions[id] = sc
	m.mu.Unlock()

	if t, ok := m.kv.(Toucher); ok {
		if err := t.Touch(ctx, m.cfg.TTL, m.keys(id)...); err != nil {
			m.logger.Warn("Failed to extend session TTL", zap.String("sessionID", id), zap.Error(err))
		}
	}

	sessionsRestoredTotal.Inc()
	activeSessions.Inc()
	m.logger.Info("Session restored", zap.String("sessionID", id))
	return sc, nil
}

// Close завершает сессию: отписывает наблюдателей и удаляет все ее ключи.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	sc, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.teardown(sc, true)
		activeSessions.Dec()
	} else {
		_, found, err := m.markerDoc(id).Load(ctx)
		if err != nil && !errors.Is(err, storage.ErrCorrupt) {
			return fmt.Errorf("load session marker: %w", err)
		}
		if !found && err == nil {
			return ErrSessionNotFound
		}
	}

	if err := m.kv.Delete(ctx, m.keys(id)...); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	m.logger.Info("Session closed", zap.String("sessionID", id))
	return nil
}

// EvictIdle выгружает из памяти сессии, к которым не обращались дольше idle.
// Сохраненное состояние остается и будет прочитано при следующем Get.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var evicted []*Context

	m.mu.Lock()
	for id, sc := range m.sessions {
		if sc.lastSeen.Before(cutoff) {
			evicted = append(evicted, sc)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sc := range evicted {
		m.teardown(sc, false)
		activeSessions.Dec()
	}
	if len(evicted) > 0 {
		m.logger.Debug("Evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunJanitor периодически вызывает EvictIdle до отмены ctx.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(idle)
		}
	}
}

func (m *Manager) build(ctx context.Context, meta metadata) *Context {
	log := m.logger.With(zap.String("sessionID", meta.ID))
	ttl := m.cfg.TTL

	w := wizard.New(storage.NewDocument[wizard.Draft](m.kv, storage.DraftKey(meta.ID), ttl), m.submitter, log)
	cmp := selection.NewComparisonSet(
		storage.NewDocument[[]selection.Entry](m.kv, storage.ComparisonKey(meta.ID), ttl),
		m.cfg.ComparisonCapacity, log)
	fav := selection.NewFavoriteSet(
		storage.NewDocument[[]selection.Entry](m.kv, storage.FavoritesKey(meta.ID), ttl), log)

	sc := &Context{
		ID:         meta.ID,
		UserID:     meta.UserID,
		CreatedAt:  meta.CreatedAt,
		Wizard:     w,
		Comparison: cmp,
		Favorites:  fav,
		lastSeen:   m.now(),
	}

	w.Load(ctx)
	cmp.Load(ctx)
	fav.Load(ctx)

	if m.sink != nil {
		for _, store := range []*selection.Store{cmp, fav} {
			sid := meta.ID
			sc.unsubscribes = append(sc.unsubscribes, store.Subscribe(func(evt selection.Event) {
				m.sink.PublishSelection(sid, evt)
			}))
		}
	}
	return sc
}

// teardown отключает наборы от sink. notify=true сообщает подписчикам о закрытии сессии.
func (m *Manager) teardown(sc *Context, notify bool) {
	if !notify {
		for _, unsubscribe := range sc.unsubscribes {
			unsubscribe()
		}
	}
	sc.Comparison.Close()
	sc.Favorites.Close()
	for _, unsubscribe := range sc.unsubscribes {
		unsubscribe()
	}
}

func (m *Manager) markerDoc(id string) *storage.Document[metadata] {
	return storage.NewDocument[metadata](m.kv, storage.SessionKey(id), m.cfg.TTL)
}

func (m *Manager) keys(id string) []string {
	return []string{
		storage.SessionKey(id),
		storage.DraftKey(id),
		storage.ComparisonKey(id),
		storage.FavoritesKey(id),
	}
}
