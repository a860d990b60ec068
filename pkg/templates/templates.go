// Package templates provides the predefined workflows offered to editors as starting points.
package templates

import (
	"fmt"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/google/uuid"
)

// Template is a named, ready to edit workflow.
type Template struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Template    *models.Workflow `json:"template"`
}

// All returns fresh copies of every predefined workflow. Each call assigns new workflow ids.
func All() []Template {
	return []Template{
		{
			ID:          "simple-http-workflow",
			Name:        "Simple HTTP Workflow",
			Description: "A basic workflow that makes HTTP requests",
			Template:    SimpleHTTP(),
		},
		{
			ID:          "function-chain-workflow",
			Name:        "Function Chain Workflow",
			Description: "Chain multiple Cloud Functions together",
			Template:    FunctionChain(),
		},
		{
			ID:          "pubsub-processing-workflow",
			Name:        "Pub/Sub Processing Workflow",
			Description: "Process messages from Pub/Sub topics",
			Template:    PubSubProcessing(),
		},
	}
}

// SimpleHTTP is Start -> HTTP request -> End.
func SimpleHTTP() *models.Workflow {
	return chain(models.WorkflowMetadata{
		Name:        "simple-http-workflow",
		Description: "A simple workflow that makes HTTP requests",
		Tags:        []string{"http", "simple"},
	},
		node("start-1", models.NodeTypeStart, &models.StartConfig{CommonConfig: models.CommonConfig{Name: "Start"}}),
		node("http-1", models.NodeTypeHTTPRequest, &models.HTTPRequestConfig{
			CommonConfig: models.CommonConfig{Name: "HTTP Request", Description: "Make an HTTP request"},
			URL:          "https://api.example.com/data",
			Method:       "GET",
		}),
		node("end-1", models.NodeTypeEnd, &models.EndConfig{CommonConfig: models.CommonConfig{Name: "End"}}),
	)
}

// FunctionChain is Start -> two Cloud Functions -> End.
func FunctionChain() *models.Workflow {
	return chain(models.WorkflowMetadata{
		Name:        "function-chain-workflow",
		Description: "Chain multiple Cloud Functions together",
		Tags:        []string{"functions", "chain"},
	},
		node("start-1", models.NodeTypeStart, &models.StartConfig{CommonConfig: models.CommonConfig{Name: "Start"}}),
		node("func-1", models.NodeTypeCloudFunction, &models.CloudFunctionConfig{
			CommonConfig: models.CommonConfig{Name: "Process Data", Description: "Process incoming data"},
			FunctionName: "process-data",
		}),
		node("func-2", models.NodeTypeCloudFunction, &models.CloudFunctionConfig{
			CommonConfig: models.CommonConfig{Name: "Transform Data", Description: "Transform processed data"},
			FunctionName: "transform-data",
		}),
		node("end-1", models.NodeTypeEnd, &models.EndConfig{CommonConfig: models.CommonConfig{Name: "End"}}),
	)
}

// PubSubProcessing subscribes to a topic, processes each message in a function and publishes
// the result.
func PubSubProcessing() *models.Workflow {
	return chain(models.WorkflowMetadata{
		Name:        "pubsub-processing-workflow",
		Description: "Process messages from Pub/Sub topics",
		Tags:        []string{"pubsub", "messaging"},
	},
		node("start-1", models.NodeTypeStart, &models.StartConfig{CommonConfig: models.CommonConfig{Name: "Start"}}),
		node("pubsub-1", models.NodeTypePubSubSubscribe, &models.PubSubSubscribeConfig{
			CommonConfig:     models.CommonConfig{Name: "Subscribe to Messages", Description: "Subscribe to incoming messages"},
			SubscriptionName: "message-subscription",
		}),
		node("func-1", models.NodeTypeCloudFunction, &models.CloudFunctionConfig{
			CommonConfig: models.CommonConfig{Name: "Process Message", Description: "Process the received message"},
			FunctionName: "process-message",
		}),
		node("pubsub-2", models.NodeTypePubSubPublish, &models.PubSubPublishConfig{
			CommonConfig: models.CommonConfig{Name: "Publish Result", Description: "Publish processing result"},
			TopicName:    "result-topic",
		}),
		node("end-1", models.NodeTypeEnd, &models.EndConfig{CommonConfig: models.CommonConfig{Name: "End"}}),
	)
}

func node(id string, nodeType models.NodeType, config models.NodeConfig) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, Type: nodeType, Config: config, Inputs: []string{}, Outputs: []string{}}
}

// chain links nodes in order, laying them out left to right.
func chain(metadata models.WorkflowMetadata, nodes ...*models.WorkflowNode) *models.Workflow {
	metadata.Version = models.DefaultWorkflowVersion
	metadata.Region = models.DefaultRegion

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Metadata:    metadata,
		Nodes:       nodes,
		Connections: []*models.WorkflowConnection{},
	}

	for i, n := range nodes {
		n.Position = models.Position{X: float64(100 + 200*i), Y: 100}

		if i == 0 {
			continue
		}

		previous := nodes[i-1]
		previous.Outputs = append(previous.Outputs, n.ID)
		n.Inputs = append(n.Inputs, previous.ID)

		workflow.Connections = append(workflow.Connections, &models.WorkflowConnection{
			ID:           fmt.Sprintf("conn-%d", i),
			SourceNodeID: previous.ID,
			TargetNodeID: n.ID,
		})
	}

	return workflow
}
