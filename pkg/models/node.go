// Package models defines the workflow graph model: nodes, connections and metadata.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NodeType identifies the variant of a workflow node.
type NodeType string

const (
	NodeTypeStart           NodeType = "start"
	NodeTypeEnd             NodeType = "end"
	NodeTypeCloudFunction   NodeType = "cloud_function"
	NodeTypeCloudRun        NodeType = "cloud_run"
	NodeTypePubSubPublish   NodeType = "pubsub_publish"
	NodeTypePubSubSubscribe NodeType = "pubsub_subscribe"
	NodeTypeHTTPRequest     NodeType = "http_request"
	NodeTypeCondition       NodeType = "condition"
	NodeTypeParallel        NodeType = "parallel"
	NodeTypeDelay           NodeType = "delay"
	NodeTypeAssign          NodeType = "assign"
	NodeTypeCall            NodeType = "call"
	NodeTypeSwitch          NodeType = "switch"
	NodeTypeForLoop         NodeType = "for_loop"
	NodeTypeTryCatch        NodeType = "try_catch"
)

// ErrUnknownNodeType is returned when decoding a node whose type is not part of the closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// AllNodeTypes returns every supported node type in catalog order.
func AllNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeStart,
		NodeTypeEnd,
		NodeTypeCloudFunction,
		NodeTypeCloudRun,
		NodeTypePubSubPublish,
		NodeTypePubSubSubscribe,
		NodeTypeHTTPRequest,
		NodeTypeCondition,
		NodeTypeParallel,
		NodeTypeDelay,
		NodeTypeAssign,
		NodeTypeCall,
		NodeTypeSwitch,
		NodeTypeForLoop,
		NodeTypeTryCatch,
	}
}

// IsValid reports whether t is one of the supported node types.
func (t NodeType) IsValid() bool {
	_, ok := nodeTypeInfo[t]

	return ok
}

// Label returns the human-readable name of the node type, e.g. "HTTP Request".
func (t NodeType) Label() string {
	if info, ok := nodeTypeInfo[t]; ok {
		return info.Name
	}

	return string(t)
}

// IsTerminal reports whether the type is a Start or End marker.
func (t NodeType) IsTerminal() bool {
	return t == NodeTypeStart || t == NodeTypeEnd
}

// IsDeployable reports whether nodes of this type produce standalone artifacts.
func (t NodeType) IsDeployable() bool {
	return t == NodeTypeCloudFunction || t == NodeTypeCloudRun
}

// Position is the node's coordinate on the editor canvas. It has no effect on compilation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowNode is a unit of work in the graph.
type WorkflowNode struct {
	ID       string     `json:"id"       validate:"required"`
	Type     NodeType   `json:"type"     validate:"required"`
	Position Position   `json:"position"`
	Config   NodeConfig `json:"config"   validate:"-"`
	Inputs   []string   `json:"inputs"`
	Outputs  []string   `json:"outputs"`
}

// EffectiveConfig returns the node config, or the empty variant of the node type when the
// config is unset or belongs to another type.
func (n *WorkflowNode) EffectiveConfig() NodeConfig {
	if n.Config != nil && n.Config.NodeType() == n.Type {
		return n.Config
	}

	config, err := NewNodeConfig(n.Type)
	if err != nil {
		return nil
	}

	return config
}

// Common returns the shared config fields of the node.
func (n *WorkflowNode) Common() CommonConfig {
	if n.Config == nil {
		return CommonConfig{}
	}

	return n.Config.Common()
}

// DisplayName returns the configured node name, falling back to the node id.
func (n *WorkflowNode) DisplayName() string {
	if name := strings.TrimSpace(n.Common().Name); name != "" {
		return name
	}

	return n.ID
}

// GenerationHint returns the free-text generation hint of the node, if any.
func (n *WorkflowNode) GenerationHint() string {
	return strings.TrimSpace(n.Common().GenerationHint)
}

// ResourceName returns the deployable resource name of the node: the function or service
// name when set, otherwise the display name lower-cased with spaces replaced by underscores.
// The result is always a single path segment.
func (n *WorkflowNode) ResourceName() string {
	switch cfg := n.Config.(type) {
	case *CloudFunctionConfig:
		if cfg.FunctionName != "" {
			return pathSegment(cfg.FunctionName)
		}
	case *CloudRunConfig:
		if cfg.ServiceName != "" {
			return pathSegment(cfg.ServiceName)
		}
	}

	return pathSegment(slug(n.DisplayName()))
}

// pathSegment replaces path separators with underscores, and so do names made only of dots.
func pathSegment(name string) string {
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name != "" && strings.Trim(name, ".") == "" {
		return strings.Repeat("_", len(name))
	}

	return name
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// UnmarshalJSON decodes a node, selecting the config variant from the node type.
func (n *WorkflowNode) UnmarshalJSON(data []byte) error {
	type alias WorkflowNode

	aux := &struct {
		*alias
		Config json.RawMessage `json:"config"`
	}{
		alias: (*alias)(n),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	config, err := DecodeNodeConfig(n.Type, aux.Config)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}

	n.Config = config

	return nil
}

// WorkflowConnection is a directed edge between two nodes. Node ids are weak references;
// their existence is checked by validation, not at construction.
type WorkflowConnection struct {
	ID           string `json:"id"                      validate:"required"`
	SourceNodeID string `json:"source_node_id"          validate:"required"`
	TargetNodeID string `json:"target_node_id"          validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
	Condition    string `json:"condition,omitempty"`
}
