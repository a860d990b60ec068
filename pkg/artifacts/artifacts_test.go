package artifacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func functionNode() *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   "fn",
		Type: models.NodeTypeCloudFunction,
		Config: &models.CloudFunctionConfig{
			CommonConfig: models.CommonConfig{Name: "Process Data", Description: "Cleans input", GenerationHint: "use pandas"},
			Resources:    models.Resources{Memory: "512MB", Timeout: "120s"},
			FunctionName: "process-data",
			EnvVars:      map[string]string{"TABLE": "events", "BUCKET": "raw"},
		},
	}
}

func serviceNode() *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   "svc",
		Type: models.NodeTypeCloudRun,
		Config: &models.CloudRunConfig{
			CommonConfig: models.CommonConfig{Name: "Report API"},
			Resources:    models.Resources{Timeout: "5m"},
			EnvVars:      map[string]string{"MODE": "prod"},
		},
	}
}

func TestGenerate_DeterministicFunction(t *testing.T) {
	t.Parallel()

	generator := NewGenerator(nil, discardLogger())

	files, err := generator.Generate(context.Background(), functionNode(), false)
	require.NoError(t, err)
	require.Len(t, files, 2)

	mainPy := files["functions/process-data/main.py"]
	assert.Contains(t, mainPy, "Cloud Function: Process Data")
	assert.Contains(t, mainPy, "Description: Cleans input")
	assert.Contains(t, mainPy, "def process_data(request):")
	assert.Contains(t, mainPy, `BUCKET = os.environ.get("BUCKET", "raw")`)
	assert.Less(t, strings.Index(mainPy, "BUCKET"), strings.Index(mainPy, "TABLE"))

	assert.Equal(t, "functions-framework>=3.4.0\ngoogle-cloud-logging>=3.8.0\n", files["functions/process-data/requirements.txt"])
}

func TestGenerate_DeterministicService(t *testing.T) {
	t.Parallel()

	generator := NewGenerator(nil, discardLogger())

	files, err := generator.Generate(context.Background(), serviceNode(), false)
	require.NoError(t, err)
	require.Len(t, files, 3)

	dockerfile := files["services/report_api/Dockerfile"]
	assert.Contains(t, dockerfile, "FROM python:3.11-slim")
	assert.Contains(t, dockerfile, `ENV MODE="prod"`)
	assert.Contains(t, dockerfile, `"--timeout", "300"`)

	mainPy := files["services/report_api/main.py"]
	assert.Contains(t, mainPy, `@app.route("/health", methods=["GET"])`)
	assert.Contains(t, mainPy, `"service": "report_api"`)

	assert.Equal(t, "Flask>=2.3.0\ngunicorn>=21.2.0\ngoogle-cloud-logging>=3.8.0\n", files["services/report_api/requirements.txt"])
}

func TestGenerate_DeterministicIsStable(t *testing.T) {
	t.Parallel()

	generator := NewGenerator(nil, discardLogger())

	first, err := generator.Generate(context.Background(), functionNode(), false)
	require.NoError(t, err)

	second, err := generator.Generate(context.Background(), functionNode(), false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_PathsStayInsideResourceDirectory(t *testing.T) {
	t.Parallel()

	generator := NewGenerator(nil, discardLogger())

	function := &models.WorkflowNode{
		ID:     "fn",
		Type:   models.NodeTypeCloudFunction,
		Config: &models.CloudFunctionConfig{FunctionName: "../../evil"},
	}

	files, err := generator.Generate(context.Background(), function, false)
	require.NoError(t, err)
	assert.Contains(t, files, "functions/.._.._evil/main.py")
	assert.Contains(t, files, "functions/.._.._evil/requirements.txt")

	service := &models.WorkflowNode{
		ID:     "svc",
		Type:   models.NodeTypeCloudRun,
		Config: &models.CloudRunConfig{ServiceName: ".."},
	}

	files, err = generator.Generate(context.Background(), service, false)
	require.NoError(t, err)
	assert.Contains(t, files, "services/__/Dockerfile")

	for name := range files {
		assert.True(t, strings.HasPrefix(name, "services/__/"), name)
	}
}

func TestGenerate_OtherTypesYieldNothing(t *testing.T) {
	t.Parallel()

	generator := NewGenerator(nil, discardLogger())

	for _, nodeType := range models.AllNodeTypes() {
		if nodeType.IsDeployable() {
			continue
		}

		files, err := generator.Generate(context.Background(), &models.WorkflowNode{ID: "n", Type: nodeType}, true)
		require.NoError(t, err)
		assert.Empty(t, files)
	}
}

func TestGenerate_EnrichedFunction(t *testing.T) {
	t.Parallel()

	var prompts []string

	producer := collaborator.ProducerFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)

		return "Sure!\n```python\nprint('enriched')\n```", nil
	})

	files, err := NewGenerator(producer, discardLogger()).Generate(context.Background(), functionNode(), true)
	require.NoError(t, err)

	assert.Equal(t, "print('enriched')\n", files["functions/process-data/main.py"])
	assert.Equal(t, "functions-framework>=3.4.0\ngoogle-cloud-logging>=3.8.0\n", files["functions/process-data/requirements.txt"])

	require.Len(t, prompts, 1)
	assert.Equal(t, FunctionPrompt(functionNode()), prompts[0])
	assert.Contains(t, prompts[0], "Generation hint: use pandas")
}

func TestGenerate_EnrichedServiceOnlyDockerfile(t *testing.T) {
	t.Parallel()

	producer := collaborator.ProducerFunc(func(context.Context, string) (string, error) {
		return "```dockerfile\nFROM gcr.io/distroless/python3\n```", nil
	})

	files, err := NewGenerator(producer, discardLogger()).Generate(context.Background(), serviceNode(), true)
	require.NoError(t, err)

	assert.Equal(t, "FROM gcr.io/distroless/python3\n", files["services/report_api/Dockerfile"])
	assert.Contains(t, files["services/report_api/main.py"], "Cloud Run Service: Report API")
}

func TestGenerate_EnrichedFailures(t *testing.T) {
	t.Parallel()

	failure := errors.New("quota exceeded")

	testCases := []struct {
		name     string
		producer collaborator.Producer
		expected error
	}{
		{
			name:     "no producer",
			producer: nil,
			expected: collaborator.ErrNotConfigured,
		},
		{
			name: "transport failure",
			producer: collaborator.ProducerFunc(func(context.Context, string) (string, error) {
				return "", failure
			}),
			expected: failure,
		},
		{
			name: "blank output",
			producer: collaborator.ProducerFunc(func(context.Context, string) (string, error) {
				return "```python\n\n```", nil
			}),
			expected: collaborator.ErrMalformedOutput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			files, err := NewGenerator(tc.producer, discardLogger()).Generate(context.Background(), functionNode(), true)
			require.Error(t, err)
			assert.Nil(t, files)
			assert.ErrorIs(t, err, tc.expected)

			var nodeErr *NodeError
			require.ErrorAs(t, err, &nodeErr)
			assert.Equal(t, "fn", nodeErr.NodeID)
		})
	}
}

func TestPrompts_AreDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FunctionPrompt(functionNode()), FunctionPrompt(functionNode()))
	assert.Equal(t, DockerfilePrompt(serviceNode()), DockerfilePrompt(serviceNode()))
	assert.Equal(t, EnhancementPrompt(functionNode()), EnhancementPrompt(functionNode()))

	assert.Contains(t, DockerfilePrompt(serviceNode()), "Service Name: report_api")
	assert.Contains(t, EnhancementPrompt(functionNode()), `"function_name": "process-data"`)

	workflow := &models.Workflow{
		Metadata: models.WorkflowMetadata{Name: "etl"},
		Nodes:    []*models.WorkflowNode{functionNode()},
	}
	prompt := WorkflowPrompt(workflow, models.TargetFormatYAML, "")
	assert.Contains(t, prompt, "Project ID: your-project-id")
	assert.Contains(t, prompt, "- cloud_function: Process Data - Cleans input (Generation hint: use pandas)")
}

func TestPythonIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "process_data", PythonIdentifier("process-data"))
	assert.Equal(t, "_9lives", PythonIdentifier("9lives"))
	assert.Equal(t, "handler", PythonIdentifier(""))
}
