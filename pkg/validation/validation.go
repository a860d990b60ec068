// Package validation checks workflow graphs for structural and configuration issues.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/robfig/cron/v3"
)

// ErrStructural marks a workflow that cannot be compiled: it lacks a single Start node or any
// End node.
var ErrStructural = errors.New("workflow structure is invalid")

// StructuralError lists the structural issues of a workflow.
type StructuralError struct {
	Issues []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStructural, strings.Join(e.Issues, "; "))
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Validate returns every issue found in the workflow, in check order: structure, connectivity,
// per-node required fields, schedule. An empty result means the workflow is valid.
func Validate(workflow *models.Workflow) []string {
	issues := []string{}
	if workflow == nil {
		return append(issues, structureIssues(&models.Workflow{})...)
	}

	issues = append(issues, structureIssues(workflow)...)
	issues = append(issues, connectivityIssues(workflow)...)
	issues = append(issues, configIssues(workflow)...)
	issues = append(issues, scheduleIssues(workflow)...)

	return issues
}

// CheckStructure returns a *StructuralError when the workflow lacks exactly one Start node or
// at least one End node.
func CheckStructure(workflow *models.Workflow) error {
	if workflow == nil {
		workflow = &models.Workflow{}
	}

	if issues := structureIssues(workflow); len(issues) > 0 {
		return &StructuralError{Issues: issues}
	}

	return nil
}

func structureIssues(workflow *models.Workflow) []string {
	var issues []string

	if len(workflow.NodesOfType(models.NodeTypeStart)) != 1 {
		issues = append(issues, "Workflow must have exactly one START node")
	}

	if len(workflow.NodesOfType(models.NodeTypeEnd)) == 0 {
		issues = append(issues, "Workflow must have at least one END node")
	}

	return issues
}

func connectivityIssues(workflow *models.Workflow) []string {
	var issues []string

	endpoints := make(map[string]struct{}, len(workflow.Connections)*2)
	sources := make(map[string][]string)
	targets := make(map[string][]string)

	for _, conn := range workflow.Connections {
		if conn == nil {
			continue
		}

		endpoints[conn.SourceNodeID] = struct{}{}
		endpoints[conn.TargetNodeID] = struct{}{}
		sources[conn.SourceNodeID] = append(sources[conn.SourceNodeID], conn.TargetNodeID)
		targets[conn.TargetNodeID] = append(targets[conn.TargetNodeID], conn.SourceNodeID)
	}

	// A node counts as connected when it appears as any endpoint, regardless of direction.
	for _, node := range workflow.Nodes {
		if node == nil || node.Type.IsTerminal() {
			continue
		}

		if _, ok := endpoints[node.ID]; !ok {
			issues = append(issues, fmt.Sprintf("Node '%s' is not connected", node.DisplayName()))
		}
	}

	for _, conn := range workflow.Connections {
		if conn == nil {
			continue
		}

		for _, id := range []string{conn.SourceNodeID, conn.TargetNodeID} {
			if workflow.NodeByID(id) == nil {
				issues = append(issues, fmt.Sprintf("Connection '%s' references unknown node '%s'", conn.ID, id))
			}
		}
	}

	for _, node := range workflow.Nodes {
		if node == nil {
			continue
		}

		for _, id := range node.Outputs {
			if !slices.Contains(sources[node.ID], id) {
				issues = append(issues, fmt.Sprintf("Node '%s' lists '%s' in outputs but no matching connection exists", node.DisplayName(), id))
			}
		}

		for _, id := range node.Inputs {
			if !slices.Contains(targets[node.ID], id) {
				issues = append(issues, fmt.Sprintf("Node '%s' lists '%s' in inputs but no matching connection exists", node.DisplayName(), id))
			}
		}
	}

	return issues
}

func configIssues(workflow *models.Workflow) []string {
	var issues []string

	for _, node := range workflow.Nodes {
		if node == nil {
			continue
		}

		if !node.Type.IsValid() {
			issues = append(issues, fmt.Sprintf("Node '%s' has unknown type '%s'", node.DisplayName(), node.Type))

			continue
		}

		for _, field := range node.EffectiveConfig().MissingFields() {
			issues = append(issues, fmt.Sprintf("%s node '%s' missing %s", node.Type.Label(), node.DisplayName(), field))
		}
	}

	return issues
}

func scheduleIssues(workflow *models.Workflow) []string {
	schedule := strings.TrimSpace(workflow.Metadata.Schedule)
	if schedule == "" {
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return []string{fmt.Sprintf("Workflow schedule '%s' is not a valid cron expression", schedule)}
	}

	return nil
}
