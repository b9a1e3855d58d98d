package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ezcode-server/internal/storage"
	"ezcode-server/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RedisKVSuite struct {
	suite.Suite
	ctx         context.Context
	container   *tcredis.RedisContainer
	redisClient *redis.Client
	kv          *storage.RedisKV
}

func (s *RedisKVSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.container, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.container.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.kv = storage.NewRedisKV(s.redisClient, zap.NewNop())
}

func (s *RedisKVSuite) TearDownSuite() {
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisKVSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
}

func (s *RedisKVSuite) TestRoundTrip() {
	_, err := s.kv.Get(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrNotFound)

	s.Require().NoError(s.kv.Set(s.ctx, "k", []byte(`{"a":1}`), time.Minute))
	val, err := s.kv.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.JSONEq(`{"a":1}`, string(val))

	ttl, err := s.redisClient.TTL(s.ctx, "k").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)

	s.Require().NoError(s.kv.Delete(s.ctx, "k"))
	_, err = s.kv.Get(s.ctx, "k")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *RedisKVSuite) TestTouchExtendsTTL() {
	s.Require().NoError(s.kv.Set(s.ctx, "a", []byte("1"), time.Second*10))
	s.Require().NoError(s.kv.Touch(s.ctx, time.Hour, "a", "absent"))

	ttl, err := s.redisClient.TTL(s.ctx, "a").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 30*time.Minute)
}

func (s *RedisKVSuite) TestDocumentOverRedis() {
	d := storage.NewDocument[map[string]any](s.kv, storage.DraftKey("sess"), time.Hour)
	s.Require().NoError(d.Save(s.ctx, map[string]any{"name": "Cursor"}))

	got, found, err := d.Load(s.ctx)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("Cursor", got["name"])
}

func TestRedisKVSuite(t *testing.T) {
	testutil.RequireDocker(t)
	suite.Run(t, new(RedisKVSuite))
}
