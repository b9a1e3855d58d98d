package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

var ErrPublisherClosed = errors.New("publisher channel is closed")

// SubmissionEventPublisher отправляет события заявок.
type SubmissionEventPublisher interface {
	PublishSubmissionEvent(ctx context.Context, event SubmissionEvent) error
}

// RabbitMQPublisher публикует события в durable-очередь через default exchange.
type RabbitMQPublisher struct {
	mu        sync.Mutex
	channel   *amqp.Channel
	queueName string
	appID     string
	logger    *zap.Logger
}

var _ SubmissionEventPublisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher открывает канал и объявляет очередь.
// Параметры очереди должны совпадать с Consumer (durable=true).
func NewRabbitMQPublisher(conn *amqp.Connection, queueName, appID string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("publisher: не удалось открыть канал: %w", err)
	}
	if _, err := declareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, fmt.Errorf("publisher: %w", err)
	}

	logger.Info("RabbitMQPublisher initialized", zap.String("queue", queueName))
	return &RabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		appID:     appID,
		logger:    logger.Named("SubmissionPublisher"),
	}, nil
}

func (p *RabbitMQPublisher) PublishSubmissionEvent(ctx context.Context, event SubmissionEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal submission event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.channel.IsClosed() {
		publishedEventsTotal.WithLabelValues(event.EventType, "error").Inc()
		return ErrPublisherClosed
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key = имя очереди
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Type:         event.EventType,
			Timestamp:    event.OccurredAt,
			AppId:        p.appID,
			Body:         body,
		},
	)
	if err != nil {
		publishedEventsTotal.WithLabelValues(event.EventType, "error").Inc()
		p.logger.Error("Failed to publish submission event",
			zap.String("eventType", event.EventType),
			zap.String("reference", event.Reference),
			zap.Error(err))
		return fmt.Errorf("publish to queue %s: %w", p.queueName, err)
	}

	publishedEventsTotal.WithLabelValues(event.EventType, "ok").Inc()
	p.logger.Debug("Submission event published",
		zap.String("eventType", event.EventType),
		zap.String("reference", event.Reference))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("не удалось объявить очередь '%s': %w", name, err)
	}
	return q, nil
}
