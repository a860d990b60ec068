package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (string, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), ctx
}

func TestStore_Save(t *testing.T) {
	redisURL, ctx := setupRedis(t)

	store, err := redis.NewStore(ctx, redisURL)
	require.NoError(t, err)

	defer func() { _ = store.Close(ctx) }()

	require.NoError(t, store.HealthCheck(ctx))

	location, err := store.Save(ctx, "wf-1", map[string]string{
		"workflow.yaml":             "main: {}\n",
		"functions/extract/main.py": "print('x')\n",
	}, persistence.SaveOptions{})
	require.NoError(t, err)
	assert.Contains(t, location, redis.KeyPrefix+"wf-1")

	options, err := goredis.ParseURL(redisURL)
	require.NoError(t, err)

	client := goredis.NewClient(options)
	defer func() { _ = client.Close() }()

	stored, err := client.HGetAll(ctx, redis.KeyPrefix+"wf-1").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"workflow.yaml":             "main: {}\n",
		"functions/extract/main.py": "print('x')\n",
	}, stored)

	_, err = store.Save(ctx, "wf-1", map[string]string{"workflow.json": "{}\n"}, persistence.SaveOptions{})
	require.NoError(t, err)

	stored, err = client.HGetAll(ctx, redis.KeyPrefix+"wf-1").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"workflow.json": "{}\n"}, stored)
}

func TestStore_SaveRejectsInvalidPaths(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	store := redis.NewStoreWithClient(client, "localhost:0")

	_, err := store.Save(t.Context(), "wf-1", map[string]string{"/abs": "x"}, persistence.SaveOptions{})
	assert.ErrorIs(t, err, persistence.ErrInvalidPath)

	_, err = store.Save(t.Context(), "", map[string]string{"a": "x"}, persistence.SaveOptions{})
	assert.ErrorIs(t, err, persistence.ErrInvalidWorkflowID)

	_, err = store.Save(t.Context(), "wf-1", map[string]string{"a": "x"}, persistence.SaveOptions{OutputPath: "/abs/key"})
	assert.ErrorIs(t, err, persistence.ErrInvalidPath)

	_, err = store.Save(t.Context(), "wf-1", map[string]string{"a": "x"}, persistence.SaveOptions{OutputPath: "../key"})
	assert.ErrorIs(t, err, persistence.ErrInvalidPath)
}
