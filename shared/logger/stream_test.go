package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, rdb
}

func TestStreamHandler_Handle(t *testing.T) {
	_, rdb := newStreamTestClient(t)

	handler := NewStreamHandler(rdb, StreamHandlerConfig{
		StreamKey: "logs:stream",
		WorkerID:  "worker-test",
	})
	logger := slog.New(handler)

	logger.Info("claimed job", slog.String("job_id", "job-1"))
	logger.Warn("no job context here")

	entries, err := rdb.XRange(context.Background(), "logs:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0].Values
	assert.Equal(t, "claimed job", first["message"])
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "worker", first["source"])
	assert.Equal(t, "worker-test", first["worker_id"])
	assert.Equal(t, "job-1", first["job_id"])
	assert.Contains(t, first, "timestamp")

	// Records without a job attribute carry the N/A placeholder
	second := entries[1].Values
	assert.Equal(t, "no job context here", second["message"])
	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, "N/A", second["job_id"])
}

func TestStreamHandler_WithAttrs(t *testing.T) {
	_, rdb := newStreamTestClient(t)

	handler := NewStreamHandler(rdb, StreamHandlerConfig{
		StreamKey: "logs:stream",
		WorkerID:  "worker-test",
	})
	logger := slog.New(handler).With(slog.String("job_id", "job-9"))

	logger.Info("executing")

	entries, err := rdb.XRange(context.Background(), "logs:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-9", entries[0].Values["job_id"])
}

func TestStreamHandler_Enabled(t *testing.T) {
	_, rdb := newStreamTestClient(t)

	handler := NewStreamHandler(rdb, StreamHandlerConfig{
		StreamKey: "logs:stream",
		Level:     slog.LevelWarn,
	})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}
