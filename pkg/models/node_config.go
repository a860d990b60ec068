package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeConfig is the type-specific configuration of a node. Exactly one variant exists per
// NodeType, and each variant declares its own required fields.
type NodeConfig interface {
	NodeType() NodeType
	Common() CommonConfig
	// MissingFields returns the wire names of required fields that are empty.
	MissingFields() []string
}

// CommonConfig holds the fields shared by every node variant.
type CommonConfig struct {
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	GenerationHint string `json:"generation_hint,omitempty"`
}

// Common returns the shared fields.
func (c CommonConfig) Common() CommonConfig { return c }

// Resources are the compute limits of a deployable node.
type Resources struct {
	Memory  string `json:"memory,omitempty"`
	CPU     string `json:"cpu,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type StartConfig struct {
	CommonConfig
}

func (*StartConfig) NodeType() NodeType { return NodeTypeStart }
func (*StartConfig) MissingFields() []string { return nil }

type EndConfig struct {
	CommonConfig
}

func (*EndConfig) NodeType() NodeType { return NodeTypeEnd }
func (*EndConfig) MissingFields() []string { return nil }

// CloudFunctionConfig configures a Cloud Function node.
type CloudFunctionConfig struct {
	CommonConfig
	Resources
	FunctionName string            `json:"function_name,omitempty"`
	EnvVars      map[string]string `json:"env_vars,omitempty"`
}

func (*CloudFunctionConfig) NodeType() NodeType { return NodeTypeCloudFunction }

func (c *CloudFunctionConfig) MissingFields() []string {
	return missing(field{"function_name", c.FunctionName})
}

// CloudRunConfig configures a Cloud Run service node.
type CloudRunConfig struct {
	CommonConfig
	Resources
	ServiceName string            `json:"service_name,omitempty"`
	EnvVars     map[string]string `json:"env_vars,omitempty"`
}

func (*CloudRunConfig) NodeType() NodeType { return NodeTypeCloudRun }

func (c *CloudRunConfig) MissingFields() []string {
	return missing(field{"service_name", c.ServiceName})
}

type PubSubPublishConfig struct {
	CommonConfig
	TopicName string `json:"topic_name,omitempty"`
}

func (*PubSubPublishConfig) NodeType() NodeType { return NodeTypePubSubPublish }

func (c *PubSubPublishConfig) MissingFields() []string {
	return missing(field{"topic_name", c.TopicName})
}

type PubSubSubscribeConfig struct {
	CommonConfig
	SubscriptionName string `json:"subscription_name,omitempty"`
}

func (*PubSubSubscribeConfig) NodeType() NodeType { return NodeTypePubSubSubscribe }

func (c *PubSubSubscribeConfig) MissingFields() []string {
	return missing(field{"subscription_name", c.SubscriptionName})
}

// HTTPRequestConfig configures an outbound HTTP call.
type HTTPRequestConfig struct {
	CommonConfig
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

func (*HTTPRequestConfig) NodeType() NodeType { return NodeTypeHTTPRequest }

func (c *HTTPRequestConfig) MissingFields() []string {
	return missing(field{"url", c.URL})
}

type ConditionConfig struct {
	CommonConfig
	Condition string `json:"condition,omitempty"`
}

func (*ConditionConfig) NodeType() NodeType { return NodeTypeCondition }

func (c *ConditionConfig) MissingFields() []string {
	return missing(field{"condition", c.Condition})
}

type ParallelConfig struct {
	CommonConfig
	Branches []string `json:"parallel_branches,omitempty"`
}

func (*ParallelConfig) NodeType() NodeType { return NodeTypeParallel }
func (*ParallelConfig) MissingFields() []string { return nil }

type DelayConfig struct {
	CommonConfig
	DelaySeconds int `json:"delay_seconds,omitempty"`
}

func (*DelayConfig) NodeType() NodeType { return NodeTypeDelay }
func (*DelayConfig) MissingFields() []string { return nil }

type AssignConfig struct {
	CommonConfig
	Variables map[string]any `json:"variables,omitempty"`
}

func (*AssignConfig) NodeType() NodeType { return NodeTypeAssign }
func (*AssignConfig) MissingFields() []string { return nil }

type CallConfig struct {
	CommonConfig
	CallTarget string         `json:"call_target,omitempty"`
	CallArgs   map[string]any `json:"call_args,omitempty"`
}

func (*CallConfig) NodeType() NodeType { return NodeTypeCall }
func (*CallConfig) MissingFields() []string { return nil }

type SwitchConfig struct {
	CommonConfig
	SwitchVariable string           `json:"switch_variable,omitempty"`
	SwitchCases    []map[string]any `json:"switch_cases,omitempty"`
}

func (*SwitchConfig) NodeType() NodeType { return NodeTypeSwitch }
func (*SwitchConfig) MissingFields() []string { return nil }

type ForLoopConfig struct {
	CommonConfig
	LoopVariable string `json:"loop_variable,omitempty"`
	LoopRange    any    `json:"loop_range,omitempty"`
}

func (*ForLoopConfig) NodeType() NodeType { return NodeTypeForLoop }
func (*ForLoopConfig) MissingFields() []string { return nil }

type TryCatchConfig struct {
	CommonConfig
	TrySteps   []string `json:"try_steps,omitempty"`
	CatchSteps []string `json:"catch_steps,omitempty"`
}

func (*TryCatchConfig) NodeType() NodeType { return NodeTypeTryCatch }
func (*TryCatchConfig) MissingFields() []string { return nil }

// NewNodeConfig returns an empty config variant for the given type.
func NewNodeConfig(t NodeType) (NodeConfig, error) {
	switch t {
	case NodeTypeStart:
		return &StartConfig{}, nil
	case NodeTypeEnd:
		return &EndConfig{}, nil
	case NodeTypeCloudFunction:
		return &CloudFunctionConfig{}, nil
	case NodeTypeCloudRun:
		return &CloudRunConfig{}, nil
	case NodeTypePubSubPublish:
		return &PubSubPublishConfig{}, nil
	case NodeTypePubSubSubscribe:
		return &PubSubSubscribeConfig{}, nil
	case NodeTypeHTTPRequest:
		return &HTTPRequestConfig{}, nil
	case NodeTypeCondition:
		return &ConditionConfig{}, nil
	case NodeTypeParallel:
		return &ParallelConfig{}, nil
	case NodeTypeDelay:
		return &DelayConfig{}, nil
	case NodeTypeAssign:
		return &AssignConfig{}, nil
	case NodeTypeCall:
		return &CallConfig{}, nil
	case NodeTypeSwitch:
		return &SwitchConfig{}, nil
	case NodeTypeForLoop:
		return &ForLoopConfig{}, nil
	case NodeTypeTryCatch:
		return &TryCatchConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
}

// DecodeNodeConfig decodes a raw config object into the variant matching t. A missing or null
// config yields the empty variant. Value types are checked against the type's schema.
func DecodeNodeConfig(t NodeType, raw json.RawMessage) (NodeConfig, error) {
	config, err := NewNodeConfig(t)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return config, nil
	}

	if err := checkConfigTypes(t, trimmed); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(trimmed, config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", t, err)
	}

	return config, nil
}

type field struct {
	name  string
	value string
}

func missing(fields ...field) []string {
	var names []string

	for _, f := range fields {
		if f.value == "" {
			names = append(names, f.name)
		}
	}

	return names
}
