// Package persistence provides the storage abstraction for generated artifact files.
package persistence

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// SaveOptions tune where a Store writes a file set.
type SaveOptions struct {
	// OutputPath replaces the default per-workflow location when set. It is always relative:
	// a directory under the file store root, a key prefix for object and key-value stores.
	OutputPath string
}

// Store writes named text files for a workflow and reports where they went.
type Store interface {
	Save(ctx context.Context, workflowID string, files map[string]string, opts SaveOptions) (string, error)
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// CleanPath normalizes a relative artifact path. Absolute paths and paths escaping their root
// are rejected with ErrInvalidPath.
func CleanPath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", ErrInvalidPath
	}

	for _, segment := range strings.Split(strings.ReplaceAll(name, `\`, "/"), "/") {
		if segment == ".." {
			return "", ErrInvalidPath
		}
	}

	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}

// OutputLocation returns the relative location a file set is saved under: the workflow id, or
// the normalized opts.OutputPath when set. Absolute or escaping output paths are rejected with
// ErrInvalidPath.
func OutputLocation(workflowID string, opts SaveOptions) (string, error) {
	if opts.OutputPath == "" {
		return workflowID, nil
	}

	if filepath.IsAbs(opts.OutputPath) {
		return "", ErrInvalidPath
	}

	return CleanPath(opts.OutputPath)
}

// SortedPaths validates every path of files and returns them in lexical order.
func SortedPaths(workflowID string, files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))

	for name := range files {
		cleaned, err := CleanPath(name)
		if err != nil {
			return nil, NewStoreError("Save", workflowID, name, err)
		}

		if cleaned != name {
			return nil, NewStoreError("Save", workflowID, name, ErrInvalidPath)
		}

		paths = append(paths, name)
	}

	sort.Strings(paths)

	return paths, nil
}
