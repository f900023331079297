//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
)

// startRedis launches a Redis 7 container and returns a connected client.
func startRedis(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewClient(config.CacheConfig{Addr: endpoint}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCache_Integration_RoundTripAndPrefixDelete(t *testing.T) {
	client := startRedis(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithPrefix("it:"))
	ctx := context.Background()

	type summary struct {
		State   string  `json:"state"`
		Income  float64 `json:"income"`
		NumSHGs int     `json:"num_shgs"`
	}
	want := []summary{{State: "Kerala", Income: 7250.5, NumSHGs: 3}}

	require.NoError(t, cache.Set(ctx, "rev4:states", want, time.Minute))
	require.NoError(t, cache.Set(ctx, "rev4:health", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "rev5:health", 2, time.Minute))

	var got []summary
	require.NoError(t, cache.Get(ctx, "rev4:states", &got))
	assert.Equal(t, want, got)

	n, err := cache.DeleteByPrefix(ctx, "rev4:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var v int
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "rev4:health", &v))
	require.NoError(t, cache.Get(ctx, "rev5:health", &v))
	assert.Equal(t, 2, v)
}

func TestCache_Integration_Prune(t *testing.T) {
	client := startRedis(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithPrefix("prune:"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rev1:health:", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "rev2:health:", 2, time.Minute))
	require.NoError(t, cache.Set(ctx, "rev2:features:", 3, time.Minute))

	n, err := cache.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var v int
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "rev1:health:", &v))
	require.NoError(t, cache.Get(ctx, "rev2:features:", &v))
	assert.Equal(t, 3, v)
}
