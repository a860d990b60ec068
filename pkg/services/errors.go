// Package services orchestrates validation, compilation and artifact generation of workflows.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowforge/pkg/validation"
)

// Error kinds. A GenerationError matches its kind with errors.Is.
var (
	// ErrStructural marks a workflow without exactly one Start node or without an End node
	// (400 Bad Request).
	ErrStructural = validation.ErrStructural

	// ErrInvalidRequest marks a request that cannot be processed at all (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCompilation marks an unexpected failure while rendering deterministic output.
	ErrCompilation = errors.New("compilation failed")

	// ErrCollaborator marks an unreachable, unconfigured or misbehaving generation collaborator.
	ErrCollaborator = errors.New("generation collaborator failed")

	// ErrPersistence marks a failure while writing artifacts to their store.
	ErrPersistence = errors.New("artifact persistence failed")
)

// GenerationError wraps a failure of a service operation with the workflow and node it concerns.
type GenerationError struct {
	Op         string // Operation name
	WorkflowID string
	NodeID     string // Node being processed, if any
	Kind       error  // One of the error kinds above, if known
	Err        error  // Underlying error
}

func (e *GenerationError) Error() string {
	var b strings.Builder

	b.WriteString(e.Op)

	if e.WorkflowID != "" {
		fmt.Fprintf(&b, " workflow %s", e.WorkflowID)
	}

	if e.NodeID != "" {
		fmt.Fprintf(&b, " node %s", e.NodeID)
	}

	if e.Kind != nil && !errors.Is(e.Err, e.Kind) {
		fmt.Fprintf(&b, ": %v", e.Kind)
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	return b.String()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return (e.Kind != nil && target == e.Kind) || errors.Is(e.Err, target)
}

// IsStructuralError checks if an error is a structural rejection that should return HTTP 400.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrStructural) || errors.Is(err, ErrInvalidRequest)
}

// IsCollaboratorError checks if an error comes from the generation collaborator.
func IsCollaboratorError(err error) bool {
	return errors.Is(err, ErrCollaborator)
}

// IsPersistenceError checks if an error comes from the artifact store.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// StructuralIssues returns the issues of a structural rejection, or nil.
func StructuralIssues(err error) []string {
	var structural *validation.StructuralError
	if errors.As(err, &structural) {
		return structural.Issues
	}

	return nil
}
