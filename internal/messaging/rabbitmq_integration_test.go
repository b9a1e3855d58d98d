package messaging_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ezcode-server/internal/messaging"
	"ezcode-server/internal/testutil"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type collectingHandler struct {
	mu     sync.Mutex
	events []messaging.SubmissionEvent
}

func (h *collectingHandler) HandleSubmissionEvent(_ context.Context, e messaging.SubmissionEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

func (h *collectingHandler) snapshot() []messaging.SubmissionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]messaging.SubmissionEvent, len(h.events))
	copy(out, h.events)
	return out
}

type RabbitMQSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
}

func (s *RabbitMQSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.container, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err)

	amqpURL, err := s.container.AmqpURL(s.ctx)
	require.NoError(s.T(), err)

	s.conn, err = messaging.Connect(s.ctx, amqpURL, messaging.ConnectOptions{MaxRetries: 10, RetryDelay: time.Second}, zap.NewNop())
	require.NoError(s.T(), err)
}

func (s *RabbitMQSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RabbitMQSuite) TestPublishAndConsume() {
	const queue = "submission_events_test"

	publisher, err := messaging.NewRabbitMQPublisher(s.conn, queue, "ezcode-test", zap.NewNop())
	s.Require().NoError(err)
	defer publisher.Close()

	handler := &collectingHandler{}
	consumer := messaging.NewConsumer(s.conn, queue, 2,
		messaging.NewProcessor(handler, zap.NewNop()), zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(s.ctx) }()
	defer func() {
		consumer.Stop()
		s.NoError(<-done)
	}()

	s.Require().NoError(publisher.PublishSubmissionEvent(s.ctx, messaging.SubmissionEvent{
		EventType: messaging.EventSubmissionCreated,
		Reference: "SUB-000001",
		ToolName:  "Cursor",
		Status:    "under-review",
	}))

	s.Eventually(func() bool { return len(handler.snapshot()) == 1 }, 10*time.Second, 50*time.Millisecond)

	got := handler.snapshot()[0]
	s.Equal(messaging.EventSubmissionCreated, got.EventType)
	s.Equal("SUB-000001", got.Reference)
	s.NotEmpty(got.EventID)
	s.False(got.OccurredAt.IsZero())
}

func TestRabbitMQSuite(t *testing.T) {
	testutil.RequireDocker(t)
	suite.Run(t, new(RabbitMQSuite))
}
