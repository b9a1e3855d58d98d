package notification_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ezcode-server/internal/messaging"
	"ezcode-server/internal/notification"
	"ezcode-server/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type NotificationStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	client    *redis.Client
}

func (s *NotificationStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.container, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(s.T(), err)

	endpoint, err := s.container.Endpoint(s.ctx, "")
	require.NoError(s.T(), err)
	s.client = redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(s.T(), s.client.Ping(s.ctx).Err())
}

func (s *NotificationStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *NotificationStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.ctx).Err())
}

func (s *NotificationStoreSuite) TestKeepsNewestWithinLimit() {
	store := notification.NewStore(s.client, "test:notifications", 3, zap.NewNop())
	for i := 1; i <= 5; i++ {
		s.Require().NoError(store.Push(s.ctx, notification.Notification{Reference: fmt.Sprintf("SUB-00000%d", i)}))
	}

	got, err := store.Recent(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("SUB-000005", got[0].Reference)
	s.Equal("SUB-000003", got[2].Reference)

	n, err := s.client.LLen(s.ctx, "test:notifications").Result()
	s.Require().NoError(err)
	s.Equal(int64(3), n)
}

func (s *NotificationStoreSuite) TestHandlerStoresEvent() {
	store := notification.NewStore(s.client, "", 0, zap.NewNop())
	h := notification.NewHandler(store, zap.NewNop())

	err := h.HandleSubmissionEvent(s.ctx, messaging.SubmissionEvent{
		EventID:   "evt-1",
		EventType: messaging.EventSubmissionCreated,
		Reference: "SUB-424242",
		ToolName:  "Tabnine",
		Status:    "under-review",
	})
	s.Require().NoError(err)

	got, err := store.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("New tool submission", got[0].Title)

	exists, err := s.client.Exists(s.ctx, notification.DefaultKey).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}

func TestNotificationStoreSuite(t *testing.T) {
	testutil.RequireDocker(t)
	suite.Run(t, new(NotificationStoreSuite))
}
