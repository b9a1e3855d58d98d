// Package selection реализует наборы выбранных инструментов (сравнение и избранное),
// синхронизированные с долговременным хранилищем.
package selection

import (
	"context"
	"errors"
)

var (
	// ErrCapacityExceeded - набор заполнен, новая запись отклонена без изменений.
	ErrCapacityExceeded = errors.New("selection set is full")
	// ErrInvalidEntry - у записи нет идентификатора.
	ErrInvalidEntry = errors.New("selection entry must have an id")
	// ErrUnknownSet - запрошен набор, которого нет.
	ErrUnknownSet = errors.New("unknown selection set")
)

// Name идентифицирует набор в сессии.
type Name string

const (
	Comparison Name = "comparison"
	Favorites  Name = "favorites"
)

// DefaultComparisonCapacity - сколько инструментов можно сравнивать одновременно.
const DefaultComparisonCapacity = 3

// ParseName проверяет имя набора из внешнего ввода.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Comparison, Favorites:
		return Name(s), nil
	}
	return "", ErrUnknownSet
}

// Entry - слабая ссылка на инструмент из каталога с полями для отображения.
type Entry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	Price    string  `json:"price"`
}

// Persister сохраняет упорядоченный список записей целиком.
type Persister interface {
	Load(ctx context.Context) ([]Entry, bool, error)
	Save(ctx context.Context, entries []Entry) error
	Delete(ctx context.Context) error
}

// EventKind описывает, что произошло с набором.
type EventKind string

const (
	EventLoaded  EventKind = "loaded"
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
	EventClosed  EventKind = "closed"
)

// Event получают подписчики после каждого успешного изменения.
// Entries - полный снимок набора после изменения.
type Event struct {
	Set     Name      `json:"set"`
	Kind    EventKind `json:"kind"`
	EntryID string    `json:"entry_id,omitempty"`
	Entries []Entry   `json:"entries"`
}

// Listener вызывается синхронно в порядке изменений. Слушатель не должен
// обращаться к тому же набору: снимок уже есть в Event.Entries.
type Listener func(Event)
