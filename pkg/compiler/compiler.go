// Package compiler lowers a workflow graph into a declarative step document.
package compiler

import (
	"fmt"
	"strings"

	"github.com/dukex/flowforge/pkg/models"
)

const (
	// DefaultProjectID is the placeholder used when no project id is known.
	DefaultProjectID = "your-project-id"

	resultVariable = "${result}"
)

// Options tune the lowering of cloud resource references.
type Options struct {
	DefaultProjectID string
}

// Compile lowers the workflow into a step document. Nodes are lowered in declaration order and
// each step key carries the node's index in the node list, Start nodes included.
func Compile(workflow *models.Workflow, opts Options) *StepDocument {
	doc := &StepDocument{Steps: []Step{}}

	for i, node := range workflow.Nodes {
		if step, ok := lower(i, node, workflow, opts); ok {
			doc.Steps = append(doc.Steps, step)
		}
	}

	return doc
}

func lower(index int, node *models.WorkflowNode, workflow *models.Workflow, opts Options) (Step, bool) {
	if node == nil {
		return Step{}, false
	}

	switch node.Type {
	case models.NodeTypeStart:
		return Step{}, false
	case models.NodeTypeEnd:
		return Step{
			Name: fmt.Sprintf("end_step_%d", index),
			Body: Mapping{{Key: "return", Value: resultVariable}},
		}, true
	}

	name := fmt.Sprintf("step_%d", index)

	switch cfg := node.EffectiveConfig().(type) {
	case *models.CloudFunctionConfig:
		return Step{Name: name, Body: cloudFunctionStep(cfg, workflow, opts)}, true
	case *models.HTTPRequestConfig:
		return Step{Name: name, Body: httpStep(cfg)}, true
	case *models.ConditionConfig:
		return Step{Name: name, Body: conditionStep(cfg)}, true
	case *models.DelayConfig:
		return Step{Name: name, Body: delayStep(cfg)}, true
	default:
		return Step{Name: name, Body: Mapping{
			{Key: "assign", Value: []any{
				Mapping{{Key: "result", Value: "Processed " + node.DisplayName()}},
			}},
		}}, true
	}
}

func cloudFunctionStep(cfg *models.CloudFunctionConfig, workflow *models.Workflow, opts Options) Mapping {
	project := workflow.ProjectID(opts.DefaultProjectID)
	if project == "" {
		project = DefaultProjectID
	}

	resource := fmt.Sprintf("projects/%s/locations/%s/functions/%s", project, workflow.Region(), cfg.FunctionName)

	return Mapping{
		{Key: "call", Value: "googleapis.cloudfunctions.v1.projects.locations.functions.call"},
		{Key: "args", Value: Mapping{
			{Key: "name", Value: resource},
			{Key: "data", Value: resultVariable},
		}},
		{Key: "result", Value: "function_result"},
	}
}

func httpStep(cfg *models.HTTPRequestConfig) Mapping {
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = "GET"
	}

	headers := map[string]string{}
	for key, value := range cfg.Headers {
		headers[key] = value
	}

	var body any = Mapping{}
	if cfg.Body != nil {
		body = cfg.Body
	}

	return Mapping{
		{Key: "call", Value: "http.request"},
		{Key: "args", Value: Mapping{
			{Key: "url", Value: cfg.URL},
			{Key: "method", Value: method},
			{Key: "headers", Value: headers},
			{Key: "body", Value: body},
		}},
		{Key: "result", Value: "http_result"},
	}
}

func conditionStep(cfg *models.ConditionConfig) Mapping {
	return Mapping{
		{Key: "switch", Value: []any{
			Mapping{
				{Key: "condition", Value: cfg.Condition},
				{Key: "next", Value: "continue"},
			},
		}},
		{Key: "next", Value: "end"},
	}
}

func delayStep(cfg *models.DelayConfig) Mapping {
	seconds := cfg.DelaySeconds
	if seconds <= 0 {
		seconds = 1
	}

	return Mapping{
		{Key: "call", Value: "sys.sleep"},
		{Key: "args", Value: Mapping{{Key: "seconds", Value: seconds}}},
	}
}
