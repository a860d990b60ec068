package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath indicates an artifact path that is absolute or escapes its output root.
	ErrInvalidPath = errors.New("invalid artifact path")

	// ErrInvalidWorkflowID indicates a workflow id that cannot name an output location.
	ErrInvalidWorkflowID = errors.New("invalid workflow id")

	// ErrUnsupportedStore indicates a storage URL whose scheme has no backend.
	ErrUnsupportedStore = errors.New("unsupported storage url")
)

// StoreError wraps storage errors with the workflow and path being written.
type StoreError struct {
	Op         string // Operation being performed (e.g., "Save", "HealthCheck")
	WorkflowID string
	Path       string // Artifact path if applicable
	Err        error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s operation failed for %s in workflow %s: %v", e.Op, e.Path, e.WorkflowID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, workflowID, path string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		WorkflowID: workflowID,
		Path:       path,
		Err:        err,
	}
}

// IsInvalidPath checks if an error indicates a rejected artifact path.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// CheckWorkflowID rejects ids that would escape or collapse the per-workflow location.
func CheckWorkflowID(workflowID string) error {
	if workflowID == "" || workflowID == "." || workflowID == ".." {
		return ErrInvalidWorkflowID
	}

	for _, r := range workflowID {
		if r == '/' || r == '\\' {
			return ErrInvalidWorkflowID
		}
	}

	return nil
}
