// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/file"
	"github.com/dukex/flowforge/pkg/persistence/postgresql"
	"github.com/dukex/flowforge/pkg/persistence/redis"
	"github.com/dukex/flowforge/pkg/persistence/s3"
)

var supportedStoreProviders = []string{"file", "s3", "redis", "postgres", "postgresql"}

// NewStore opens the artifact store addressed by storageURL. URLs without a scheme are treated as
// local directories; unknown schemes fail with persistence.ErrUnsupportedStore.
func NewStore(ctx context.Context, logger *slog.Logger, storageURL string) (persistence.Store, error) {
	switch parseStoreProvider(storageURL) {
	case "s3":
		cfg, err := s3.ParseURL(storageURL)
		if err != nil {
			return nil, err
		}

		return s3.NewStore(cfg)
	case "redis":
		return redis.NewStore(ctx, storageURL)
	case "postgres", "postgresql":
		return postgresql.NewStore(ctx, logger, storageURL)
	case "file":
		return file.NewStore(storageURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", persistence.ErrUnsupportedStore, storageURL)
	}
}

func parseStoreProvider(storageURL string) string {
	provider, _, found := strings.Cut(storageURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedStoreProviders {
		if provider == supported {
			return provider
		}
	}

	return ""
}
