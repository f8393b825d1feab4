package jobqueue

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scrape-queue/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, rdb
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_CreateAndGet(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, testLogger())
	ctx := context.Background()

	job := &domain.Job{
		ID:            "job-1",
		Status:        domain.JobStatusPending,
		ScraperType:   "gis",
		OperationType: "statistics",
		CreatedAt:     "2026-08-28T10:00:00Z",
		Params: map[string]string{
			"target_id": "70000001",
			"city":      "moscow",
		},
	}

	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, domain.JobStatusPending, got.Status)
	assert.Equal(t, "gis", got.ScraperType)
	assert.Equal(t, "statistics", got.OperationType)
	assert.Equal(t, "2026-08-28T10:00:00Z", got.CreatedAt)
	assert.Equal(t, "70000001", got.Params["target_id"])
	assert.Equal(t, "moscow", got.Params["city"])
}

func TestStore_GetNotFound(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, testLogger())

	job, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Nil(t, job)
}

func TestStore_Update(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.Job{
		ID:            "job-1",
		Status:        domain.JobStatusPending,
		ScraperType:   "yandex",
		OperationType: "reviews",
		CreatedAt:     "2026-08-28T10:00:00Z",
	}))

	err := store.Update(ctx, "job-1", map[string]string{
		FieldStatus:    domain.JobStatusRunning,
		FieldWorkerID:  "worker-abc",
		FieldStartedAt: "2026-08-28T10:00:05Z",
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusRunning, got.Status)
	assert.Equal(t, "worker-abc", got.WorkerID)
	assert.Equal(t, "2026-08-28T10:00:05Z", got.StartedAt)
	// Untouched fields survive the merge
	assert.Equal(t, "yandex", got.ScraperType)
	assert.Equal(t, "reviews", got.OperationType)
}

func TestStore_UpdateMissingRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, testLogger())

	err := store.Update(context.Background(), "missing", map[string]string{
		FieldStatus: domain.JobStatusRunning,
	})
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	// The update must not create the record as a side effect
	assert.False(t, mr.Exists(JobKey("missing")))
}

func TestStore_UpdateNoFields(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, testLogger())

	require.NoError(t, store.Update(context.Background(), "whatever", nil))
}
