package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamHandlerConfig holds Redis stream handler configuration
type StreamHandlerConfig struct {
	StreamKey string
	WorkerID  string
	MaxLen    int64
	Level     slog.Level
}

// StreamHandler ships log records to a capped Redis stream so that an
// operator can tail worker logs without access to the worker host.
type StreamHandler struct {
	rdb    redis.Cmdable
	config StreamHandlerConfig
	attrs  []slog.Attr
}

// NewStreamHandler creates a handler that XADDs records to cfg.StreamKey.
func NewStreamHandler(rdb redis.Cmdable, cfg StreamHandlerConfig) *StreamHandler {
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 5000
	}
	return &StreamHandler{rdb: rdb, config: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *StreamHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.config.Level
}

// Handle writes the record to the Redis stream. A failed XADD is swallowed:
// log shipping must never take the worker down.
func (h *StreamHandler) Handle(ctx context.Context, record slog.Record) error {
	entry := map[string]interface{}{
		"message":   record.Message,
		"level":     record.Level.String(),
		"source":    "worker",
		"worker_id": h.config.WorkerID,
		"job_id":    "N/A",
		"timestamp": record.Time.UTC().Format(time.RFC3339Nano),
	}

	appendAttr := func(a slog.Attr) {
		if a.Key == "job_id" {
			entry["job_id"] = a.Value.String()
			return
		}
		entry[a.Key] = fmt.Sprint(a.Value.Any())
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})

	h.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: h.config.StreamKey,
		MaxLen: h.config.MaxLen,
		Approx: true,
		Values: entry,
	})
	return nil
}

// WithAttrs returns a handler that includes the given attributes.
func (h *StreamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup is accepted but groups are flattened; stream entries are a flat
// field map.
func (h *StreamHandler) WithGroup(string) slog.Handler {
	return h
}
