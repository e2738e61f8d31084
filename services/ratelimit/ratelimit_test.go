package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

type recordingLogger struct {
	core.NopLogger
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.warnings = append(l.warnings, msg)
}

func TestRedisStore_key(t *testing.T) {
	s := NewRedisStore(nil, "ERS:ratelimit", 5, time.Minute, core.NopLogger{})
	at := time.Date(2024, time.March, 1, 9, 0, 10, 0, time.UTC)
	s.now = func() time.Time { return at }
	first := s.key("10.0.0.1")

	s.now = func() time.Time { return at.Add(40 * time.Second) }
	assert.Equal(t, first, s.key("10.0.0.1"), "same window")
	assert.NotEqual(t, first, s.key("10.0.0.2"))

	s.now = func() time.Time { return at.Add(time.Minute) }
	assert.NotEqual(t, first, s.key("10.0.0.1"), "next window")
}

func TestRedisStore_Allow_unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	logger := &recordingLogger{}

	allowed, err := NewRedisStore(client, "ERS:ratelimit", 5, time.Minute, logger).Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, []string{"rate limiter unavailable"}, logger.warnings)
}

func TestNewStore_memory(t *testing.T) {
	conf := core.NewTestConfig()
	conf.PinChecksPerMinute = 2

	store, closeFn, err := NewStore(context.Background(), conf, core.NopLogger{})
	require.NoError(t, err)
	defer closeFn()

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed, "burst spent")

	allowed, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "other client")
}

func TestNewStore_badURL(t *testing.T) {
	conf := core.NewTestConfig()
	conf.RedisURL = "http://nope"
	_, _, err := NewStore(context.Background(), conf, core.NopLogger{})
	assert.Error(t, err)
}
