package models

// NodeTypeInfo describes a node type for editors: its label, purpose and config schema.
type NodeTypeInfo struct {
	Type        NodeType    `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Schema      *JSONSchema `json:"schema"`
}

// NodeTypeCatalog returns the info of every node type in AllNodeTypes order.
func NodeTypeCatalog() []NodeTypeInfo {
	types := AllNodeTypes()
	catalog := make([]NodeTypeInfo, 0, len(types))

	for _, t := range types {
		catalog = append(catalog, nodeTypeInfo[t])
	}

	return catalog
}

var commonProperties = map[string]*Property{
	"name":            {Type: "string", Description: "Display name of the node"},
	"description":     {Type: "string", Description: "What the node does"},
	"generation_hint": {Type: "string", Description: "Free-text guidance used when generating code"},
}

var resourceProperties = map[string]*Property{
	"memory":   {Type: "string", Description: "Memory limit, e.g. 256Mi"},
	"cpu":      {Type: "string", Description: "CPU limit, e.g. 1"},
	"timeout":  {Type: "string", Description: "Request timeout, e.g. 60s"},
	"env_vars": {Type: "object", Description: "Environment variables", AdditionalProperties: &Property{Type: "string"}},
}

func configSchema(title string, required []string, extra ...map[string]*Property) *JSONSchema {
	properties := make(map[string]*Property, len(commonProperties))
	for name, prop := range commonProperties {
		properties[name] = prop
	}

	for _, props := range extra {
		for name, prop := range props {
			properties[name] = prop
		}
	}

	return &JSONSchema{
		Type:       "object",
		Title:      title,
		Properties: properties,
		Required:   required,
	}
}

var nodeTypeInfo = map[NodeType]NodeTypeInfo{
	NodeTypeStart: {
		Type:        NodeTypeStart,
		Name:        "Start",
		Description: "Starting point of the workflow",
		Schema:      configSchema("Start", nil),
	},
	NodeTypeEnd: {
		Type:        NodeTypeEnd,
		Name:        "End",
		Description: "End point of the workflow",
		Schema:      configSchema("End", nil),
	},
	NodeTypeCloudFunction: {
		Type:        NodeTypeCloudFunction,
		Name:        "Cloud Function",
		Description: "Execute a Google Cloud Function",
		Schema: configSchema("Cloud Function", []string{"function_name"}, resourceProperties, map[string]*Property{
			"function_name": {Type: "string", Description: "Name of the deployed function"},
		}),
	},
	NodeTypeCloudRun: {
		Type:        NodeTypeCloudRun,
		Name:        "Cloud Run",
		Description: "Call a Google Cloud Run service",
		Schema: configSchema("Cloud Run", []string{"service_name"}, resourceProperties, map[string]*Property{
			"service_name": {Type: "string", Description: "Name of the deployed service"},
		}),
	},
	NodeTypePubSubPublish: {
		Type:        NodeTypePubSubPublish,
		Name:        "Pub/Sub Publish",
		Description: "Publish a message to Pub/Sub topic",
		Schema: configSchema("Pub/Sub Publish", []string{"topic_name"}, map[string]*Property{
			"topic_name": {Type: "string", Description: "Topic to publish to"},
		}),
	},
	NodeTypePubSubSubscribe: {
		Type:        NodeTypePubSubSubscribe,
		Name:        "Pub/Sub Subscribe",
		Description: "Subscribe to Pub/Sub messages",
		Schema: configSchema("Pub/Sub Subscribe", []string{"subscription_name"}, map[string]*Property{
			"subscription_name": {Type: "string", Description: "Subscription to pull from"},
		}),
	},
	NodeTypeHTTPRequest: {
		Type:        NodeTypeHTTPRequest,
		Name:        "HTTP Request",
		Description: "Make an HTTP request to external service",
		Schema: configSchema("HTTP Request", []string{"url"}, map[string]*Property{
			"url":     {Type: "string", Description: "Request URL"},
			"method":  {Type: "string", Description: "HTTP method", Default: "GET"},
			"headers": {Type: "object", Description: "Request headers", AdditionalProperties: &Property{Type: "string"}},
			"body":    {Description: "Request body"},
		}),
	},
	NodeTypeCondition: {
		Type:        NodeTypeCondition,
		Name:        "Condition",
		Description: "Conditional branching based on expression",
		Schema: configSchema("Condition", []string{"condition"}, map[string]*Property{
			"condition": {Type: "string", Description: "Boolean expression, e.g. ${result.status == 200}"},
		}),
	},
	NodeTypeParallel: {
		Type:        NodeTypeParallel,
		Name:        "Parallel",
		Description: "Execute multiple steps in parallel",
		Schema: configSchema("Parallel", nil, map[string]*Property{
			"parallel_branches": {Type: "array", Description: "Branch names", Items: &Property{Type: "string"}},
		}),
	},
	NodeTypeDelay: {
		Type:        NodeTypeDelay,
		Name:        "Delay",
		Description: "Add a delay/wait in the workflow",
		Schema: configSchema("Delay", nil, map[string]*Property{
			"delay_seconds": {Type: "integer", Description: "Seconds to wait", Default: 1},
		}),
	},
	NodeTypeAssign: {
		Type:        NodeTypeAssign,
		Name:        "Assign",
		Description: "Assign values to variables",
		Schema: configSchema("Assign", nil, map[string]*Property{
			"variables": {Type: "object", Description: "Variables to assign"},
		}),
	},
	NodeTypeCall: {
		Type:        NodeTypeCall,
		Name:        "Call",
		Description: "Call another workflow or subworkflow",
		Schema: configSchema("Call", nil, map[string]*Property{
			"call_target": {Type: "string", Description: "Subworkflow or connector to call"},
			"call_args":   {Type: "object", Description: "Call arguments"},
		}),
	},
	NodeTypeSwitch: {
		Type:        NodeTypeSwitch,
		Name:        "Switch",
		Description: "Switch statement for multiple conditions",
		Schema: configSchema("Switch", nil, map[string]*Property{
			"switch_variable": {Type: "string", Description: "Variable to switch on"},
			"switch_cases":    {Type: "array", Description: "Cases", Items: &Property{Type: "object"}},
		}),
	},
	NodeTypeForLoop: {
		Type:        NodeTypeForLoop,
		Name:        "For Loop",
		Description: "Loop through a collection of items",
		Schema: configSchema("For Loop", nil, map[string]*Property{
			"loop_variable": {Type: "string", Description: "Loop variable name"},
			"loop_range":    {Description: "Collection or range to iterate"},
		}),
	},
	NodeTypeTryCatch: {
		Type:        NodeTypeTryCatch,
		Name:        "Try/Catch",
		Description: "Error handling with try/catch blocks",
		Schema: configSchema("Try/Catch", nil, map[string]*Property{
			"try_steps":   {Type: "array", Description: "Steps to try", Items: &Property{Type: "string"}},
			"catch_steps": {Type: "array", Description: "Steps run on error", Items: &Property{Type: "string"}},
		}),
	},
}
