// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"

	"github.com/dukex/flowforge/pkg/models"
)

// CreateTestWorkflow links start, the given nodes and end in a single chain. Every connection is
// mirrored in the node inputs and outputs so the result validates cleanly.
func CreateTestWorkflow(nodes ...*models.WorkflowNode) *models.Workflow {
	workflow := &models.Workflow{
		ID: "test-workflow",
		Metadata: models.WorkflowMetadata{
			Name:      "Test Workflow",
			Version:   models.DefaultWorkflowVersion,
			ProjectID: "test-project",
			Region:    models.DefaultRegion,
		},
	}

	chain := []*models.WorkflowNode{{ID: "start", Type: models.NodeTypeStart}}
	chain = append(chain, nodes...)
	chain = append(chain, &models.WorkflowNode{ID: "end", Type: models.NodeTypeEnd})

	for i, node := range chain {
		node.Position = models.Position{X: float64(100 + 200*i), Y: 100}

		if i == 0 {
			continue
		}

		previous := chain[i-1]
		previous.Outputs = append(previous.Outputs, node.ID)
		node.Inputs = append(node.Inputs, previous.ID)

		workflow.Connections = append(workflow.Connections, &models.WorkflowConnection{
			ID:           fmt.Sprintf("conn-%d", i),
			SourceNodeID: previous.ID,
			TargetNodeID: node.ID,
		})
	}

	workflow.Nodes = chain

	return workflow
}

// CreateFunctionNode creates a Cloud Function node.
func CreateFunctionNode(id, functionName, hint string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   id,
		Type: models.NodeTypeCloudFunction,
		Config: &models.CloudFunctionConfig{
			CommonConfig: models.CommonConfig{Name: functionName, GenerationHint: hint},
			FunctionName: functionName,
		},
	}
}

// CreateServiceNode creates a Cloud Run node.
func CreateServiceNode(id, serviceName, hint string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   id,
		Type: models.NodeTypeCloudRun,
		Config: &models.CloudRunConfig{
			CommonConfig: models.CommonConfig{Name: serviceName, GenerationHint: hint},
			ServiceName:  serviceName,
		},
	}
}

// CreateHTTPNode creates an HTTP request node calling url.
func CreateHTTPNode(id, url string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:     id,
		Type:   models.NodeTypeHTTPRequest,
		Config: &models.HTTPRequestConfig{URL: url, Method: "GET"},
	}
}
