// Package notification ведет ленту уведомлений модераторов о заявках.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ezcode-server/internal/messaging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultKey   = "ezcode:admin:notifications"
	DefaultLimit = 100
)

// Notification - запись ленты модератора.
type Notification struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	SubmissionID string    `json:"submission_id"`
	Reference    string    `json:"reference"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromEvent строит уведомление по событию заявки.
func FromEvent(e messaging.SubmissionEvent) (Notification, error) {
	n := Notification{
		ID:           e.EventID,
		Type:         e.EventType,
		SubmissionID: e.SubmissionID,
		Reference:    e.Reference,
		Status:       e.Status,
		CreatedAt:    e.OccurredAt,
	}
	switch e.EventType {
	case messaging.EventSubmissionCreated:
		n.Title = "New tool submission"
		n.Message = fmt.Sprintf("%s was submitted for review (%s, $%.2f paid)", e.ToolName, e.Reference, e.AmountPaid)
	case messaging.EventSubmissionStatusChanged:
		n.Title = "Submission reviewed"
		n.Message = fmt.Sprintf("%s (%s) is now %s", e.ToolName, e.Reference, e.Status)
	default:
		return Notification{}, fmt.Errorf("%w: unknown event type %q", messaging.ErrPermanent, e.EventType)
	}
	return n, nil
}

// Store хранит последние limit уведомлений в списке Redis, новые первыми.
type Store struct {
	client redis.UniversalClient
	key    string
	limit  int64
	logger *zap.Logger
}

func NewStore(client redis.UniversalClient, key string, limit int64, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		client: client,
		key:    key,
		limit:  limit,
		logger: logger.Named("NotificationStore"),
	}
}

// Push добавляет уведомление в голову списка и обрезает хвост.
func (s *Store) Push(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to push notification", zap.String("reference", n.Reference), zap.Error(err))
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// Recent возвращает до count последних уведомлений. Нечитаемые записи пропускаются.
func (s *Store) Recent(ctx context.Context, count int64) ([]Notification, error) {
	if count <= 0 || count > s.limit {
		count = s.limit
	}
	raw, err := s.client.LRange(ctx, s.key, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			s.logger.Warn("Skipping unreadable notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Handler превращает события заявок в уведомления.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

var _ messaging.SubmissionEventHandler = (*Handler)(nil)

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger.Named("NotificationHandler")}
}

func (h *Handler) HandleSubmissionEvent(ctx context.Context, e messaging.SubmissionEvent) error {
	n, err := FromEvent(e)
	if err != nil {
		return err
	}
	if err := h.store.Push(ctx, n); err != nil {
		return err
	}
	h.logger.Info("Admin notification stored", zap.String("type", n.Type), zap.String("reference", n.Reference))
	return nil
}
