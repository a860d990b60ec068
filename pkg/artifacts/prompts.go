package artifacts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/flowforge/pkg/models"
)

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func envJSON(env []envVar) string {
	values := make(map[string]string, len(env))
	for _, v := range env {
		values[v.Key] = v.Value
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return "{}"
	}

	return string(data)
}

// WorkflowPrompt asks for a Cloud Workflows definition of the whole graph in the given format.
func WorkflowPrompt(workflow *models.Workflow, format models.TargetFormat, defaultProjectID string) string {
	var nodes strings.Builder

	for _, node := range workflow.Nodes {
		if node == nil {
			continue
		}

		fmt.Fprintf(&nodes, "- %s: %s", node.Type, node.DisplayName())

		if description := node.Common().Description; description != "" {
			fmt.Fprintf(&nodes, " - %s", description)
		}

		if hint := node.GenerationHint(); hint != "" {
			fmt.Fprintf(&nodes, " (Generation hint: %s)", hint)
		}

		nodes.WriteString("\n")
	}

	return fmt.Sprintf(`Generate a Google Cloud Workflow %[1]s definition for the following workflow:

Workflow Name: %[2]s
Description: %[3]s
Project ID: %[4]s
Region: %[5]s

Nodes:
%[6]s
Requirements:
1. Generate valid Google Cloud Workflow syntax
2. Include proper error handling and logging
3. Use appropriate Google Cloud services based on node types
4. Include timeout and retry configurations where appropriate
5. Follow Google Cloud Workflow best practices

Please provide only the %[1]s content without any additional explanation.
`,
		strings.ToUpper(string(format)),
		workflow.Metadata.Name,
		orDefault(workflow.Metadata.Description, "No description provided"),
		orDefault(workflow.ProjectID(defaultProjectID), "your-project-id"),
		workflow.Region(),
		nodes.String(),
	)
}

// FunctionPrompt asks for the main.py of a Cloud Function node.
func FunctionPrompt(node *models.WorkflowNode) string {
	data := newTemplateData(node)

	return fmt.Sprintf(`Generate Python code for a Google Cloud Function with the following specifications:

Function Name: %s
Description: %s
Generation hint: %s

Environment Variables: %s
Memory: %s
Timeout: %s

Requirements:
1. Expose an HTTP entry point named %s using functions_framework
2. Include proper error handling and logging
3. Use Google Cloud client libraries where appropriate
4. Follow Python best practices and PEP 8
5. Include input validation

Please provide the Python code for main.py only, without additional explanation.
`,
		data.ResourceName,
		orDefault(data.Description, "No description provided"),
		orDefault(node.GenerationHint(), "No specific requirements"),
		envJSON(data.EnvVars),
		orDefault(data.Memory, "256MB"),
		orDefault(data.Timeout, "60s"),
		PythonIdentifier(data.ResourceName),
	)
}

// DockerfilePrompt asks for the Dockerfile of a Cloud Run node.
func DockerfilePrompt(node *models.WorkflowNode) string {
	data := newTemplateData(node)

	return fmt.Sprintf(`Generate a Dockerfile for a Google Cloud Run service with the following specifications:

Service Name: %s
Description: %s
Generation hint: %s

Environment Variables: %s
Memory: %s
CPU: %s

Requirements:
1. The service is a Flask application in main.py exposing "app", with dependencies in requirements.txt
2. Include security best practices
3. Listen on the port given by the PORT environment variable
4. Minimize image size

Please provide only the Dockerfile content without additional explanation.
`,
		data.ResourceName,
		orDefault(data.Description, "No description provided"),
		orDefault(node.GenerationHint(), "No specific requirements"),
		envJSON(data.EnvVars),
		orDefault(data.Memory, "512Mi"),
		orDefault(data.CPU, "1000m"),
	)
}

// EnhancementPrompt asks for configuration suggestions for a node as a JSON object with a
// "suggestions" string array.
func EnhancementPrompt(node *models.WorkflowNode) string {
	config, err := json.MarshalIndent(node.EffectiveConfig(), "", "  ")
	if err != nil {
		config = []byte("{}")
	}

	return fmt.Sprintf(`Enhance the configuration for a workflow node based on the following information:

Node Type: %s
Current Name: %s
Description: %s
Generation hint: %s

Current Configuration: %s

Please provide enhanced configuration suggestions covering resource allocations, environment
variables, security, performance and best practices.

Return only valid JSON of the form {"suggestions": ["..."]} without additional explanation.
`,
		node.Type,
		node.DisplayName(),
		orDefault(node.Common().Description, "No description provided"),
		orDefault(node.GenerationHint(), "No specific requirements"),
		config,
	)
}
