package models

import "encoding/json"

const (
	// DefaultWorkflowVersion is applied when the metadata carries no version.
	DefaultWorkflowVersion = "1.0.0"
	// DefaultRegion is applied when the metadata carries no region.
	DefaultRegion = "us-central1"
)

// WorkflowMetadata describes a workflow and the cloud location it targets.
type WorkflowMetadata struct {
	Name        string   `json:"name"                 validate:"required"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Region      string   `json:"region"`
	Timeout     int      `json:"timeout,omitempty"`  // Seconds
	Schedule    string   `json:"schedule,omitempty"` // Standard 5-field cron expression
}

// UnmarshalJSON decodes metadata and applies the version and region defaults.
func (m *WorkflowMetadata) UnmarshalJSON(data []byte) error {
	type alias WorkflowMetadata

	aux := alias{
		Version: DefaultWorkflowVersion,
		Region:  DefaultRegion,
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Version == "" {
		aux.Version = DefaultWorkflowVersion
	}

	if aux.Region == "" {
		aux.Region = DefaultRegion
	}

	*m = WorkflowMetadata(aux)

	return nil
}

// Workflow is a directed graph of nodes describing a serverless pipeline.
type Workflow struct {
	ID          string                `json:"id"          validate:"required"`
	Metadata    WorkflowMetadata      `json:"metadata"`
	Nodes       []*WorkflowNode       `json:"nodes"       validate:"dive"`
	Connections []*WorkflowConnection `json:"connections" validate:"dive"`
}

// NodesOfType returns the nodes of the given type in declaration order.
func (w *Workflow) NodesOfType(t NodeType) []*WorkflowNode {
	var nodes []*WorkflowNode

	for _, node := range w.Nodes {
		if node != nil && node.Type == t {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node
		}
	}

	return nil
}

// ProjectID returns the metadata project id, falling back to the given default.
func (w *Workflow) ProjectID(fallback string) string {
	if w.Metadata.ProjectID != "" {
		return w.Metadata.ProjectID
	}

	return fallback
}

// Region returns the metadata region, falling back to DefaultRegion.
func (w *Workflow) Region() string {
	if w.Metadata.Region != "" {
		return w.Metadata.Region
	}

	return DefaultRegion
}

// DisplayName returns the configured name of a node, falling back to its id.
func DisplayName(node *WorkflowNode) string {
	return node.DisplayName()
}

// ResourceName returns the deployable resource name of a node.
func ResourceName(node *WorkflowNode) string {
	return node.ResourceName()
}
