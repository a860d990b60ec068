// Package file provides the file system artifact store.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowforge/pkg/persistence"
)

const (
	dirPerm        = 0o755
	filePerm       = 0o644
	executablePerm = 0o755
)

// Store implements persistence.Store on the local file system.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root; a file:// prefix is accepted.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	if cleanRoot == "" {
		cleanRoot = "."
	}

	return &Store{root: cleanRoot}
}

// Save writes files under <root>/<workflow id>, or under <root>/<opts.OutputPath> when set, and
// returns the absolute output directory.
func (s *Store) Save(ctx context.Context, workflowID string, files map[string]string, opts persistence.SaveOptions) (string, error) {
	if err := persistence.CheckWorkflowID(workflowID); err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	paths, err := persistence.SortedPaths(workflowID, files)
	if err != nil {
		return "", err
	}

	location, err := persistence.OutputLocation(workflowID, opts)
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, opts.OutputPath, err)
	}

	dir, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(location)))
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	for _, name := range paths {
		if err := ctx.Err(); err != nil {
			return "", persistence.NewStoreError("Save", workflowID, name, err)
		}

		target := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			return "", persistence.NewStoreError("Save", workflowID, name, fmt.Errorf("failed to create directory: %w", err))
		}

		if err := os.WriteFile(target, []byte(files[name]), permFor(name)); err != nil {
			return "", persistence.NewStoreError("Save", workflowID, name, fmt.Errorf("failed to write file: %w", err))
		}
	}

	return dir, nil
}

// HealthCheck verifies the root directory exists or can be created.
func (s *Store) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return persistence.NewStoreError("HealthCheck", "", s.root, err)
	}

	return nil
}

// Close performs any necessary cleanup. For file-based storage, there is nothing to clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func permFor(name string) os.FileMode {
	if strings.HasSuffix(name, ".sh") {
		return executablePerm
	}

	return filePerm
}
