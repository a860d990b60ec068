package models

import "encoding/json"

// TargetFormat is the serialization of the generated step document.
type TargetFormat string

const (
	TargetFormatYAML TargetFormat = "yaml"
	TargetFormatJSON TargetFormat = "json"
)

// Extension returns the file extension of the format.
func (f TargetFormat) Extension() string {
	if f == TargetFormatJSON {
		return "json"
	}

	return "yaml"
}

// GenerationRequest asks for the artifacts of a workflow.
type GenerationRequest struct {
	Workflow          *Workflow    `json:"workflow"           validate:"required"`
	TargetFormat      TargetFormat `json:"target_format"      validate:"omitempty,oneof=yaml json"`
	IncludeDeployment bool         `json:"include_deployment"`
	Enrich            bool         `json:"enrich"`
}

// NewGenerationRequest returns a request with the default options.
func NewGenerationRequest(workflow *Workflow) *GenerationRequest {
	return &GenerationRequest{
		Workflow:          workflow,
		TargetFormat:      TargetFormatYAML,
		IncludeDeployment: true,
		Enrich:            true,
	}
}

// UnmarshalJSON decodes a request, defaulting absent options to yaml output with deployment
// descriptors and enrichment enabled.
func (r *GenerationRequest) UnmarshalJSON(data []byte) error {
	type alias GenerationRequest

	aux := alias{
		TargetFormat:      TargetFormatYAML,
		IncludeDeployment: true,
		Enrich:            true,
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TargetFormat == "" {
		aux.TargetFormat = TargetFormatYAML
	}

	*r = GenerationRequest(aux)

	return nil
}

// GenerationResult is the output of one generation request. Files are keyed by their
// relative path inside the output directory.
type GenerationResult struct {
	WorkflowID        string            `json:"workflow_id"`
	GeneratedFiles    map[string]string `json:"generated_files"`
	DeploymentConfigs map[string]string `json:"deployment_configs"`
	Suggestions       []string          `json:"suggestions"`
	ElapsedSeconds    float64           `json:"elapsed_seconds"`
}

// FilesCount returns the number of generated files and deployment descriptors.
func (r *GenerationResult) FilesCount() int {
	return len(r.GeneratedFiles) + len(r.DeploymentConfigs)
}

// AllFiles returns generated files and deployment descriptors in a single map.
func (r *GenerationResult) AllFiles() map[string]string {
	files := make(map[string]string, r.FilesCount())

	for path, content := range r.GeneratedFiles {
		files[path] = content
	}

	for path, content := range r.DeploymentConfigs {
		files[path] = content
	}

	return files
}
