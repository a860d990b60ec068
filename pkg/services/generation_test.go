package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/deployment"
	"github.com/dukex/flowforge/pkg/mocks"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// scriptedProducer answers each prompt kind with a canned response.
func scriptedProducer(suggestions string, suggestionErr error) collaborator.Producer {
	return collaborator.ProducerFunc(func(ctx context.Context, prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, "Generate a Google Cloud Workflow"):
			return "Here it is:\n```yaml\nmain:\n  steps: []\n```\n", nil
		case strings.HasPrefix(prompt, "Generate Python code"):
			return "```python\ndef handler(request):\n    return 'ok'\n```", nil
		case strings.HasPrefix(prompt, "Generate a Dockerfile"):
			return "```dockerfile\nFROM python:3.11-slim\n```", nil
		case strings.HasPrefix(prompt, "Enhance the configuration"):
			return suggestions, suggestionErr
		default:
			return "", fmt.Errorf("unexpected prompt: %.40s", prompt)
		}
	})
}

func TestGeneration_GenerateDeterministic(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "test-workflow", mock.AnythingOfType("events.GenerationCompleted")).Return(nil)

	service := NewGeneration(testLogger(), nil, WithEventPublisher(bus))

	request := models.NewGenerationRequest(testutil.CreateTestWorkflow(
		testutil.CreateFunctionNode("fn", "extract", ""),
		testutil.CreateServiceNode("svc", "report", ""),
	))
	request.Enrich = false

	result, err := service.Generate(t.Context(), request)
	require.NoError(t, err)

	assert.Equal(t, "test-workflow", result.WorkflowID)
	assert.Contains(t, result.GeneratedFiles, "workflow.yaml")
	assert.Contains(t, result.GeneratedFiles, "functions/extract/main.py")
	assert.Contains(t, result.GeneratedFiles, "functions/extract/requirements.txt")
	assert.Contains(t, result.GeneratedFiles, "services/report/Dockerfile")
	assert.Contains(t, result.GeneratedFiles, "services/report/main.py")
	assert.Len(t, result.DeploymentConfigs, 3)
	assert.Contains(t, result.DeploymentConfigs, deployment.TerraformFile)
	assert.Empty(t, result.Suggestions)
	assert.GreaterOrEqual(t, result.ElapsedSeconds, 0.0)

	bus.AssertExpectations(t)
}

func TestGeneration_GenerateIsRepeatable(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	generate := func() *models.GenerationResult {
		request := models.NewGenerationRequest(testutil.CreateTestWorkflow(
			testutil.CreateFunctionNode("fn", "extract", ""),
		))
		request.Enrich = false
		request.TargetFormat = models.TargetFormatJSON

		result, err := service.Generate(t.Context(), request)
		require.NoError(t, err)

		return result
	}

	first, second := generate(), generate()

	assert.Equal(t, first.GeneratedFiles, second.GeneratedFiles)
	assert.Equal(t, first.DeploymentConfigs, second.DeploymentConfigs)
	assert.Contains(t, first.GeneratedFiles, "workflow.json")
}

func TestGeneration_GenerateWithoutDeployment(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	request := models.NewGenerationRequest(testutil.CreateTestWorkflow())
	request.Enrich = false
	request.IncludeDeployment = false

	result, err := service.Generate(t.Context(), request)
	require.NoError(t, err)

	assert.Empty(t, result.DeploymentConfigs)
	assert.Len(t, result.GeneratedFiles, 1)
}

func TestGeneration_GenerateRejectsStructuralIssues(t *testing.T) {
	t.Parallel()

	producer := &mocks.MockProducer{}

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "broken", mock.AnythingOfType("events.GenerationFailed")).Return(nil)

	service := NewGeneration(testLogger(), producer, WithEventPublisher(bus))

	workflow := &models.Workflow{
		ID:       "broken",
		Metadata: models.WorkflowMetadata{Name: "broken"},
		Nodes:    []*models.WorkflowNode{testutil.CreateFunctionNode("fn", "extract", "")},
	}

	result, err := service.Generate(t.Context(), models.NewGenerationRequest(workflow))
	require.Error(t, err)
	assert.Nil(t, result)

	assert.True(t, IsStructuralError(err))
	assert.True(t, IsValidationError(err))
	assert.Equal(t, []string{
		"Workflow must have exactly one START node",
		"Workflow must have at least one END node",
	}, StructuralIssues(err))

	producer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything)
	bus.AssertExpectations(t)
}

func TestGeneration_GenerateToleratesNonStructuralIssues(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	workflow := testutil.CreateTestWorkflow(testutil.CreateFunctionNode("fn", "extract", ""))
	workflow.Nodes = append(workflow.Nodes, testutil.CreateHTTPNode("orphan", ""))

	request := models.NewGenerationRequest(workflow)
	request.Enrich = false

	_, err := service.Generate(t.Context(), request)
	assert.NoError(t, err)
}

func TestGeneration_GenerateRejectsMissingWorkflow(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	_, err := service.Generate(t.Context(), &models.GenerationRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGeneration_GenerateEnriched(t *testing.T) {
	t.Parallel()

	producer := scriptedProducer("```json\n{\"suggestions\": [\"Use 1GB of memory\", 42, \"Set max instances\"]}\n```", nil)
	service := NewGeneration(testLogger(), producer)

	result, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow(
		testutil.CreateFunctionNode("fn", "extract", "read rows from BigQuery"),
		testutil.CreateServiceNode("svc", "report", ""),
	)))
	require.NoError(t, err)

	assert.Equal(t, "main:\n  steps: []\n", result.GeneratedFiles["workflow.yaml"])
	assert.Equal(t, "def handler(request):\n    return 'ok'\n", result.GeneratedFiles["functions/extract/main.py"])
	assert.Equal(t, "FROM python:3.11-slim\n", result.GeneratedFiles["services/report/Dockerfile"])

	expected := append([]string{"Use 1GB of memory", "Set max instances"}, generalSuggestions...)
	assert.Equal(t, expected, result.Suggestions)
}

func TestGeneration_SuggestionFailuresAreSkipped(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		response string
		err      error
	}{
		{name: "transport error", err: errors.New("connection reset")},
		{name: "invalid json", response: "not json at all"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service := NewGeneration(testLogger(), scriptedProducer(tc.response, tc.err))

			result, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow(
				testutil.CreateFunctionNode("fn", "extract", "make it fast"),
			)))
			require.NoError(t, err)

			assert.Equal(t, generalSuggestions, result.Suggestions)
		})
	}
}

func TestGeneration_SuggestionsAreTruncated(t *testing.T) {
	t.Parallel()

	producer := scriptedProducer(`{"suggestions": ["a", "b", "c", "d"]}`, nil)
	service := NewGeneration(testLogger(), producer)

	result, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow(
		testutil.CreateFunctionNode("fn-1", "one", "hint"),
		testutil.CreateFunctionNode("fn-2", "two", "hint"),
		testutil.CreateFunctionNode("fn-3", "three", "hint"),
	)))
	require.NoError(t, err)

	require.Len(t, result.Suggestions, maxSuggestions)
	assert.Equal(t, []string{"a", "b", "c", "d", "a", "b", "c", "d", "a", "b"}, result.Suggestions)
}

func TestGeneration_GenerateEnrichedWithoutProducer(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	_, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow()))
	require.Error(t, err)

	assert.True(t, IsCollaboratorError(err))
	assert.ErrorIs(t, err, collaborator.ErrNotConfigured)
}

func TestGeneration_GenerateCollaboratorFailure(t *testing.T) {
	t.Parallel()

	producer := &mocks.MockProducer{}
	producer.On("Produce", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	service := NewGeneration(testLogger(), producer)

	_, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow()))
	require.Error(t, err)

	assert.True(t, IsCollaboratorError(err))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "test-workflow")
}

func TestGeneration_GenerateNodeFailureCarriesNodeID(t *testing.T) {
	t.Parallel()

	producer := collaborator.ProducerFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Generate Python code") {
			return "", errors.New("model overloaded")
		}

		return "main: {}", nil
	})

	service := NewGeneration(testLogger(), producer)

	_, err := service.Generate(t.Context(), models.NewGenerationRequest(testutil.CreateTestWorkflow(
		testutil.CreateFunctionNode("fn", "extract", ""),
	)))
	require.Error(t, err)

	var generationErr *GenerationError
	require.ErrorAs(t, err, &generationErr)
	assert.Equal(t, "fn", generationErr.NodeID)
	assert.True(t, IsCollaboratorError(err))
}

func TestGeneration_GenerateCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	service := NewGeneration(testLogger(), nil)

	request := models.NewGenerationRequest(testutil.CreateTestWorkflow())
	request.Enrich = false

	_, err := service.Generate(ctx, request)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneration_DuplicatePathsKeepLaterFile(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	request := models.NewGenerationRequest(testutil.CreateTestWorkflow(
		testutil.CreateFunctionNode("fn-1", "extract", ""),
		testutil.CreateFunctionNode("fn-2", "extract", ""),
	))
	request.Enrich = false

	result, err := service.Generate(t.Context(), request)
	require.NoError(t, err)

	assert.Len(t, result.GeneratedFiles, 3)
}

func TestGeneration_Validate(t *testing.T) {
	t.Parallel()

	service := NewGeneration(testLogger(), nil)

	report := service.Validate(testutil.CreateTestWorkflow(testutil.CreateFunctionNode("fn", "extract", "")))
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Issues)
	assert.Equal(t, "Workflow is valid", report.Message)
	assert.Equal(t, "test-workflow", report.WorkflowID)

	report = service.Validate(testutil.CreateTestWorkflow(testutil.CreateFunctionNode("fn", "", "")))
	assert.False(t, report.IsValid)
	assert.Equal(t, []string{"Cloud Function node 'fn' missing function_name"}, report.Issues)
	assert.Equal(t, "Workflow has validation issues", report.Message)
}

func TestGeneration_Preview(t *testing.T) {
	t.Parallel()

	producer := &mocks.MockProducer{}
	service := NewGeneration(testLogger(), producer)

	preview, err := service.Preview(testutil.CreateTestWorkflow(testutil.CreateHTTPNode("call", "https://example.com")))
	require.NoError(t, err)
	require.NotNil(t, preview.Content)
	assert.Contains(t, *preview.Content, "main:")
	assert.Equal(t, "YAML preview generated successfully", preview.Message)
	assert.Empty(t, preview.ValidationIssues)

	preview, err = service.Preview(testutil.CreateTestWorkflow(testutil.CreateHTTPNode("call", "")))
	require.NoError(t, err)
	assert.Nil(t, preview.Content)
	assert.Equal(t, "Cannot generate preview due to validation issues", preview.Message)
	assert.NotEmpty(t, preview.ValidationIssues)

	producer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything)
}

func TestGeneration_Save(t *testing.T) {
	t.Parallel()

	files := map[string]string{"workflow.yaml": "main: {}\n"}

	store := &mocks.MockStore{}
	store.On("Save", mock.Anything, "wf-1", files, persistence.SaveOptions{OutputPath: "out"}).Return("/tmp/out", nil)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "wf-1", mock.AnythingOfType("events.ArtifactsSaved")).Return(errors.New("broker down"))

	service := NewGeneration(testLogger(), nil, WithStore(store), WithEventPublisher(bus))

	location, err := service.Save(t.Context(), "wf-1", files, "out")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", location)

	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestGeneration_SaveFailures(t *testing.T) {
	t.Parallel()

	t.Run("no store", func(t *testing.T) {
		t.Parallel()

		service := NewGeneration(testLogger(), nil)

		_, err := service.Save(t.Context(), "wf-1", map[string]string{}, "")
		assert.True(t, IsPersistenceError(err))
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		store := &mocks.MockStore{}
		store.On("Save", mock.Anything, "wf-1", mock.Anything, mock.Anything).Return("", persistence.ErrInvalidPath)

		service := NewGeneration(testLogger(), nil, WithStore(store))

		_, err := service.Save(t.Context(), "wf-1", map[string]string{"../x": ""}, "")
		assert.True(t, IsPersistenceError(err))
		assert.ErrorIs(t, err, persistence.ErrInvalidPath)
	})

	t.Run("cancelled before write", func(t *testing.T) {
		t.Parallel()

		store := &mocks.MockStore{}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		service := NewGeneration(testLogger(), nil, WithStore(store))

		_, err := service.Save(ctx, "wf-1", map[string]string{}, "")
		assert.ErrorIs(t, err, context.Canceled)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGeneration_HealthCheck(t *testing.T) {
	t.Parallel()

	message, healthy := NewGeneration(testLogger(), nil).HealthCheck(t.Context())
	assert.False(t, healthy)
	assert.Equal(t, "Artifact store not initialized", message)

	store := &mocks.MockStore{}
	store.On("HealthCheck", mock.Anything).Return(nil)

	message, healthy = NewGeneration(testLogger(), nil, WithStore(store)).HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Artifact store is healthy", message)
}
