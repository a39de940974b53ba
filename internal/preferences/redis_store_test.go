package preferences

import (
	"context"
	"sync"
	"testing"

	"circuitbot/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore_RecordAndLeaning(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupRedis(t), zap.NewNop())

	assert.Equal(t, models.LeaningNeutral, store.Leaning(ctx, "u1"))

	assert.Equal(t, models.StyleCounter{Concise: 1}, store.RecordChoice(ctx, "u1", models.StyleConcise))
	assert.Equal(t, models.StyleCounter{Concise: 2}, store.RecordChoice(ctx, "u1", models.StyleConcise))
	assert.Equal(t, models.LeaningConcise, store.Leaning(ctx, "u1"))

	store.RecordChoice(ctx, "u1", models.StyleDetailed)
	store.RecordChoice(ctx, "u1", models.StyleDetailed)
	assert.Equal(t, models.LeaningDetailed, store.Leaning(ctx, "u1"))
}

func TestRedisStore_ConcurrentChoicesAreExact(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(setupRedis(t), zap.NewNop())

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.RecordChoice(ctx, "u1", models.StyleDetailed)
		}()
	}
	wg.Wait()

	counter, err := store.Counter(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, writers, counter.Detailed)
}

func TestRedisStore_UnavailableIsAbsorbed(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	store := NewRedisStore(client, zap.NewNop())

	ctx := context.Background()
	assert.Equal(t, models.LeaningNeutral, store.Leaning(ctx, "u1"))
	assert.Equal(t, models.StyleCounter{}, store.RecordChoice(ctx, "u1", models.StyleConcise))
}
