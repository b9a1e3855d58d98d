package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const handleTimeout = 30 * time.Second

var (
	// ErrPermanent помечает ошибку, после которой сообщение не возвращается в очередь.
	ErrPermanent = errors.New("permanent processing error")
	// ErrDeliveriesClosed - брокер закрыл канал доставки при живом соединении.
	ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")
)

// SubmissionEventHandler обрабатывает одно событие заявки.
type SubmissionEventHandler interface {
	HandleSubmissionEvent(ctx context.Context, event SubmissionEvent) error
}

// Acknowledger - часть amqp.Delivery, нужная процессору.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Processor разбирает сообщение, вызывает обработчик и подтверждает доставку.
type Processor struct {
	handler SubmissionEventHandler
	logger  *zap.Logger
}

func NewProcessor(handler SubmissionEventHandler, logger *zap.Logger) *Processor {
	return &Processor{
		handler: handler,
		logger:  logger.Named("SubmissionEventProcessor"),
	}
}

// Process возвращает true, если сообщение подтверждено (Ack).
// Битый JSON и ErrPermanent отклоняются без повтора, прочие ошибки возвращают сообщение в очередь.
func (p *Processor) Process(ctx context.Context, body []byte, ack Acknowledger) bool {
	var event SubmissionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		consumedEventsTotal.WithLabelValues("unknown", "malformed").Inc()
		p.logger.Error("Failed to decode submission event", zap.Error(err), zap.ByteString("body", body))
		p.nack(ack, false)
		return false
	}

	log := p.logger.With(zap.String("eventType", event.EventType), zap.String("reference", event.Reference))

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := p.handler.HandleSubmissionEvent(handleCtx, event); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		consumedEventsTotal.WithLabelValues(event.EventType, "error").Inc()
		log.Error("Failed to handle submission event", zap.Bool("requeue", requeue), zap.Error(err))
		p.nack(ack, requeue)
		return false
	}

	if err := ack.Ack(false); err != nil {
		log.Error("Failed to ack submission event", zap.Error(err))
		return false
	}
	consumedEventsTotal.WithLabelValues(event.EventType, "ok").Inc()
	log.Debug("Submission event processed")
	return true
}

func (p *Processor) nack(ack Acknowledger, requeue bool) {
	if err := ack.Nack(false, requeue); err != nil {
		p.logger.Error("Failed to nack submission event", zap.Error(err))
	}
}

// Consumer читает очередь событий несколькими воркерами.
type Consumer struct {
	conn        *amqp.Connection
	queueName   string
	concurrency int
	processor   *Processor
	logger      *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, queueName string, concurrency int, processor *Processor, logger *zap.Logger) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		logger:      logger.Named("SubmissionEventConsumer"),
		stop:        make(chan struct{}),
	}
}

// Run блокируется до Stop, отмены ctx или закрытия канала доставки.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	q, err := declareQueue(ch, c.queueName)
	if err != nil {
		return err
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "ezcode-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	c.logger.Info("Consumer started", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))
	return c.consume(ctx, msgs)
}

// consume раздает доставки воркерам. Закрытие канала доставки брокером (отмена
// консьюмера, удаление очереди, исключение канала) завершает consume с ErrDeliveriesClosed.
func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	closed := make(chan struct{})
	var closeOnce sync.Once

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			if c.work(ctx, workerID, msgs) {
				closeOnce.Do(func() { close(closed) })
			}
		}(i)
	}

	var err error
	select {
	case <-ctx.Done():
	case <-c.stop:
	case <-closed:
		err = ErrDeliveriesClosed
		c.logger.Error("Delivery channel closed by broker, consumer is stopping")
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("Consumer stopped")
	return err
}

// work возвращает true, если канал доставки закрыт.
func (c *Consumer) work(ctx context.Context, workerID int, msgs <-chan amqp.Delivery) bool {
	log := c.logger.With(zap.Int("workerID", workerID))
	for {
		select {
		case <-ctx.Done():
			return false
		case d, ok := <-msgs:
			if !ok {
				log.Warn("Delivery channel closed")
				return true
			}
			c.processor.Process(ctx, d.Body, d)
		}
	}
}

func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
