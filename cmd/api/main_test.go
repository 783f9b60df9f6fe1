package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/config"
	"github.com/Cristi-la/EOL-Net/internal/ratelimit"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func TestThrottleBackend_MemoryStoreSkipsRedis(t *testing.T) {
	cfg := &config.Config{Throttle: config.ThrottleConfig{Store: config.ThrottleStoreMemory}}

	counters, redis := throttleBackend(cfg, zap.NewNop())
	defer redis.Close()

	assert.IsType(t, &ratelimit.MemoryStore{}, counters)
	assert.Nil(t, redis)

	checks := readinessChecks(stubPinger{}, redis)
	assert.Len(t, checks, 1)
	assert.Contains(t, checks, "postgres")
}

func TestThrottleBackend_RedisStoreIsCheckedForReadiness(t *testing.T) {
	cfg := &config.Config{
		Throttle: config.ThrottleConfig{Store: config.ThrottleStoreRedis},
		Redis:    config.RedisConfig{Addr: "127.0.0.1:1"},
	}

	counters, redis := throttleBackend(cfg, zap.NewNop())
	require.NotNil(t, redis)
	defer redis.Close()

	assert.IsType(t, &ratelimit.RedisStore{}, counters)

	checks := readinessChecks(stubPinger{}, redis)
	assert.Len(t, checks, 2)
	assert.Contains(t, checks, "redis")
}
