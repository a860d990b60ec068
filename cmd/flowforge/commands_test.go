package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowforge/pkg/deployment"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence/file"
	"github.com/dukex/flowforge/pkg/services"
	"github.com/dukex/flowforge/pkg/templates"
	"github.com/dukex/flowforge/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflow(t *testing.T, workflow *models.Workflow) string {
	t.Helper()

	data, err := json.Marshal(workflow)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func newTestService(t *testing.T, output string) *services.Generation {
	t.Helper()

	return services.NewGeneration(slog.New(slog.DiscardHandler), nil, services.WithStore(file.NewStore(output)))
}

func TestRunValidate(t *testing.T) {
	t.Parallel()

	service := newTestService(t, t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runValidate(&out, service, writeWorkflow(t, templates.SimpleHTTP())))
	assert.Equal(t, "Workflow is valid\n", out.String())

	out.Reset()

	invalid := testutil.CreateTestWorkflow(testutil.CreateHTTPNode("fetch", ""))
	err := runValidate(&out, service, writeWorkflow(t, invalid))
	require.ErrorIs(t, err, errInvalidWorkflow)
	assert.Contains(t, out.String(), "HTTP Request node 'fetch' missing url")

	require.Error(t, runValidate(&out, service, ""))
}

func TestRunPreview(t *testing.T) {
	t.Parallel()

	service := newTestService(t, t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runPreview(&out, service, writeWorkflow(t, templates.SimpleHTTP())))
	assert.Contains(t, out.String(), "main:")
	assert.Contains(t, out.String(), "https://api.example.com/data")
}

func TestRunGenerate(t *testing.T) {
	t.Parallel()

	output := t.TempDir()
	service := newTestService(t, output)

	workflow := templates.FunctionChain()

	var out bytes.Buffer
	err := runGenerate(t.Context(), &out, service, writeWorkflow(t, workflow), GenerateOptions{
		Format: models.TargetFormatYAML,
	})
	require.NoError(t, err)

	dir := filepath.Join(output, workflow.ID)
	for _, name := range []string{
		"workflow.yaml",
		"functions/process-data/main.py",
		"functions/transform-data/requirements.txt",
		deployment.CloudBuildFile,
		deployment.TerraformFile,
		deployment.ScriptFile,
	} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(name)))
	}

	assert.Contains(t, out.String(), "Generated 8 files in "+dir)
}

func TestRunGenerate_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	service := newTestService(t, t.TempDir())

	err := runGenerate(t.Context(), &bytes.Buffer{}, service, writeWorkflow(t, templates.SimpleHTTP()), GenerateOptions{
		Format: "toml",
	})
	require.Error(t, err)
}
