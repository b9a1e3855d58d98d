package selection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// persistTimeout ограничивает запись набора, отвязанную от отмены запроса.
const persistTimeout = 5 * time.Second

// Store - единственный авторитетный экземпляр набора в рамках сессии.
// Хранилище читается один раз в Load и перезаписывается целиком при каждом изменении.
type Store struct {
	name      Name
	capacity  int // 0 - без ограничения
	persister Persister
	logger    *zap.Logger

	mu      sync.RWMutex
	entries []Entry
	loaded  bool

	// emitMu сохраняет порядок доставки событий, совпадающий с порядком изменений.
	emitMu    sync.Mutex
	subMu     sync.Mutex
	listeners map[uint64]Listener
	nextSubID uint64
}

// New создает набор. capacity <= 0 означает неограниченный набор.
func New(name Name, capacity int, persister Persister, logger *zap.Logger) *Store {
	if capacity < 0 {
		capacity = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		name:      name,
		capacity:  capacity,
		persister: persister,
		logger:    logger.Named("SelectionStore").With(zap.String("set", string(name))),
		listeners: make(map[uint64]Listener),
	}
}

// NewComparisonSet создает ограниченный набор сравнения.
func NewComparisonSet(persister Persister, capacity int, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultComparisonCapacity
	}
	return New(Comparison, capacity, persister, logger)
}

// NewFavoriteSet создает неограниченный набор избранного.
func NewFavoriteSet(persister Persister, logger *zap.Logger) *Store {
	return New(Favorites, 0, persister, logger)
}

func (s *Store) Name() Name    { return s.name }
func (s *Store) Capacity() int { return s.capacity }

// Load читает сохраненный список. Повторные вызовы ничего не делают.
// Ошибка чтения или разбора не возвращается: набор начинается пустым.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true

	entries, found, err := s.persister.Load(ctx)
	switch {
	case err != nil:
		persistFailuresTotal.WithLabelValues(string(s.name), "load").Inc()
		s.logger.Warn("Failed to load persisted selection, starting empty", zap.Error(err))
		entries = nil
	case !found:
		entries = nil
	}
	s.entries = s.normalize(entries)
	evt := s.event(EventLoaded, "")
	s.emitMu.Lock()
	s.mu.Unlock()
	s.notify(evt)
}

// normalize отбрасывает записи без id и дубликаты и обрезает список до емкости.
func (s *Store) normalize(in []Entry) []Entry {
	out := make([]Entry, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if s.capacity > 0 && len(out) >= s.capacity {
			s.logger.Warn("Persisted selection exceeds capacity, truncating", zap.Int("persisted", len(in)))
			break
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Add добавляет запись в конец. Повторное добавление того же id ничего не меняет.
// Полный набор возвращает ErrCapacityExceeded и остается прежним.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	if s.indexOf(e.ID) >= 0 {
		s.mu.Unlock()
		return nil
	}
	if s.full() {
		s.mu.Unlock()
		capacityRejectionsTotal.WithLabelValues(string(s.name)).Inc()
		return fmt.Errorf("%w: %s holds at most %d tools", ErrCapacityExceeded, s.name, s.capacity)
	}
	s.entries = append(s.entries, e)
	s.commit(ctx, EventAdded, e.ID)
	return nil
}

// Remove удаляет запись по id. Отсутствующий id - не ошибка.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.removeAt(idx)
	s.commit(ctx, EventRemoved, id)
}

// Clear очищает набор.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}
	s.entries = nil
	s.commit(ctx, EventCleared, "")
}

// Toggle удаляет запись, если она есть, иначе добавляет по правилам Add.
// Проверка и изменение выполняются под одной блокировкой.
// Возвращает true, если запись теперь в наборе.
func (s *Store) Toggle(ctx context.Context, e Entry) (bool, error) {
	if e.ID == "" {
		return false, ErrInvalidEntry
	}
	s.mu.Lock()
	if idx := s.indexOf(e.ID); idx >= 0 {
		s.removeAt(idx)
		s.commit(ctx, EventRemoved, e.ID)
		return false, nil
	}
	if s.full() {
		s.mu.Unlock()
		capacityRejectionsTotal.WithLabelValues(string(s.name)).Inc()
		return false, fmt.Errorf("%w: %s holds at most %d tools", ErrCapacityExceeded, s.name, s.capacity)
	}
	s.entries = append(s.entries, e)
	s.commit(ctx, EventAdded, e.ID)
	return true, nil
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Entries возвращает копию записей в порядке добавления.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe регистрирует слушателя. Возвращенная функция отписывает его.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = l
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.listeners, id)
			s.subMu.Unlock()
		})
	}
}

// Close сообщает подписчикам о завершении сессии и отписывает их.
// Сохраненное состояние не трогается.
func (s *Store) Close() {
	s.mu.RLock()
	evt := s.event(EventClosed, "")
	s.emitMu.Lock()
	s.mu.RUnlock()
	s.notify(evt)

	s.subMu.Lock()
	s.listeners = make(map[uint64]Listener)
	s.subMu.Unlock()
}

// commit сохраняет набор и рассылает событие. Вызывается под s.mu, освобождает его.
// Ошибка записи логируется: состояние в памяти остается авторитетным.
func (s *Store) commit(ctx context.Context, kind EventKind, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	var err error
	if len(s.entries) == 0 {
		err = s.persister.Delete(ctx)
	} else {
		err = s.persister.Save(ctx, s.snapshot())
	}
	if err != nil {
		persistFailuresTotal.WithLabelValues(string(s.name), "save").Inc()
		s.logger.Error("Failed to persist selection", zap.String("op", string(kind)), zap.Error(err))
	}
	mutationsTotal.WithLabelValues(string(s.name), string(kind)).Inc()

	evt := s.event(kind, id)
	s.emitMu.Lock()
	s.mu.Unlock()
	s.notify(evt)
}

// notify вызывается с захваченным emitMu и освобождает его.
func (s *Store) notify(evt Event) {
	defer s.emitMu.Unlock()

	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(evt)
	}
}

func (s *Store) event(kind EventKind, id string) Event {
	return Event{Set: s.name, Kind: kind, EntryID: id, Entries: s.snapshot()}
}

func (s *Store) snapshot() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(idx int) {
	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)
	s.entries = next
}

func (s *Store) full() bool {
	return s.capacity > 0 && len(s.entries) >= s.capacity
}
