// Package redis stores generated artifacts as Redis hashes.
package redis

import (
	"context"
	"fmt"

	"github.com/dukex/flowforge/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// KeyPrefix prefixes the hash key of every workflow.
const KeyPrefix = "flowforge:artifacts:"

// Store implements persistence.Store with one hash per workflow: field = path, value = content.
type Store struct {
	client goredis.UniversalClient
	addr   string
}

// NewStore connects to the Redis server described by a redis:// URL.
func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, addr: options.Addr}, nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client goredis.UniversalClient, addr string) *Store {
	return &Store{client: client, addr: addr}
}

// Save writes all files to the workflow hash in a single transaction and returns
// redis://<addr>/<key>.
func (s *Store) Save(ctx context.Context, workflowID string, files map[string]string, opts persistence.SaveOptions) (string, error) {
	if err := persistence.CheckWorkflowID(workflowID); err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	paths, err := persistence.SortedPaths(workflowID, files)
	if err != nil {
		return "", err
	}

	key := KeyPrefix + workflowID
	if opts.OutputPath != "" {
		key, err = persistence.OutputLocation(workflowID, opts)
		if err != nil {
			return "", persistence.NewStoreError("Save", workflowID, opts.OutputPath, err)
		}
	}

	values := make([]any, 0, 2*len(paths))
	for _, name := range paths {
		values = append(values, name, files[name])
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)

		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}

		return nil
	})
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	return fmt.Sprintf("redis://%s/%s", s.addr, key), nil
}

// HealthCheck pings the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return persistence.NewStoreError("HealthCheck", "", "", err)
	}

	return nil
}

// Close closes the client.
func (s *Store) Close(_ context.Context) error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
