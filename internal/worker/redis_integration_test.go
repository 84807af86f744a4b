//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestWorkerPool_ConsumesQueueAndParksFailures(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ok, bad := uuid.New(), uuid.New()
	jobs := &fakeJobs{failing: map[uuid.UUID]bool{bad: true}}
	d := NewDispatcher(rdb)
	require.NoError(t, d.Enqueue(ctx, ok))
	require.NoError(t, d.Enqueue(ctx, bad))

	StartWorkerPool(ctx, rdb, jobs, 2)
	require.Eventually(t, func() bool { return len(jobs.done()) == 2 }, 10*time.Second, 50*time.Millisecond)
	assert.ElementsMatch(t, []uuid.UUID{ok, bad}, jobs.done())

	require.Eventually(t, func() bool {
		n, err := DLQLength(ctx, rdb, QueueMealPlan)
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)

	raw, err := rdb.LIndex(ctx, DLQPrefix+QueueMealPlan, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, bad, entry.JobID)
	assert.Equal(t, QueueMealPlan, entry.OriginalQueue)
	assert.Contains(t, entry.Reason, "incomplete")
}
